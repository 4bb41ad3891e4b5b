package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
	Role        string `json:"role" binding:"required,account_role"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	AccountID   string `json:"account_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateCampaignRequest is the request body for campaign creation.
type CreateCampaignRequest struct {
	Title        string `json:"title" binding:"required,min=1,max=200"`
	Description  string `json:"description" binding:"max=2000"`
	Location     string `json:"location" binding:"required,min=1,max=200"`
	DisasterType string `json:"disaster_type" binding:"required,min=1,max=100"`
	GoalAmount   int64  `json:"goal_amount" binding:"required,gt=0"`
}

// CampaignResponse is the response body for a campaign.
type CampaignResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	DisasterType   string `json:"disaster_type"`
	GoalAmount     int64  `json:"goal_amount"`
	RaisedAmount   int64  `json:"raised_amount"`
	TotalAllocated int64  `json:"total_allocated"`
	Available      int64  `json:"available"`
	Organizer      string `json:"organizer"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// CampaignListResponse wraps a page of campaigns.
type CampaignListResponse struct {
	Items  []CampaignResponse `json:"items"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// DonateRequest is the request body for a donation.
type DonateRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// DonationResponse is the response body for a donation record.
type DonationResponse struct {
	ID         string `json:"id"`
	CampaignID string `json:"campaign_id"`
	Donor      string `json:"donor"`
	Amount     int64  `json:"amount"`
	CreatedAt  string `json:"created_at"`
}

// ApplicationResponse is the response body for a beneficiary application.
type ApplicationResponse struct {
	ID          string `json:"id"`
	CampaignID  string `json:"campaign_id"`
	Beneficiary string `json:"beneficiary"`
	State       string `json:"state"`
	AppliedAt   string `json:"applied_at"`
}

// AllocateRequest is the request body for allocating escrow funds to a
// beneficiary's restricted wallet.
type AllocateRequest struct {
	Beneficiary string `json:"beneficiary" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
}

// WalletResponse is the response body for a restricted wallet.
type WalletResponse struct {
	ID            string `json:"id"`
	CampaignID    string `json:"campaign_id"`
	Beneficiary   string `json:"beneficiary"`
	TotalReceived int64  `json:"total_received"`
	TotalSpent    int64  `json:"total_spent"`
	Balance       int64  `json:"balance"`
}

// SetStatusRequest is the request body for a campaign status transition.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE PAUSED COMPLETED CANCELLED"`
}

// ApproveMerchantRequest is the request body for granting a merchant a spend
// category on one wallet.
type ApproveMerchantRequest struct {
	Merchant string `json:"merchant" binding:"required,uuid"`
	Category string `json:"category" binding:"required,spend_category"`
}

// SpendRequest is the request body for a wallet spend.
type SpendRequest struct {
	Merchant    string `json:"merchant" binding:"required,uuid"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Category    string `json:"category" binding:"required,spend_category"`
	Description string `json:"description" binding:"max=500"`
}

// SpendResponse is the response body for a spend record.
type SpendResponse struct {
	ID          string `json:"id"`
	WalletID    string `json:"wallet_id"`
	Merchant    string `json:"merchant"`
	Amount      int64  `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// BalanceResponse is the response for a ledger balance query.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// DepositRequest is the request body for the admin token on-ramp.
type DepositRequest struct {
	Identity string `json:"identity" binding:"required,uuid"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

// DepositResponse reports the identity's balance after a deposit.
type DepositResponse struct {
	Identity string `json:"identity"`
	Balance  int64  `json:"balance"`
}

// CheckResponse is the response for boolean registry lookups.
type CheckResponse struct {
	Result bool `json:"result"`
}
