package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCampaign_Available(t *testing.T) {
	c := &Campaign{RaisedAmount: 1000, TotalAllocated: 350}
	assert.Equal(t, int64(650), c.Available())
}

func TestCampaign_IsTerminal(t *testing.T) {
	tests := []struct {
		status   CampaignStatus
		terminal bool
	}{
		{CampaignStatusActive, false},
		{CampaignStatusPaused, false},
		{CampaignStatusCompleted, true},
		{CampaignStatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := &Campaign{Status: tt.status}
			assert.Equal(t, tt.terminal, c.IsTerminal())
		})
	}
}

func TestCampaign_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from CampaignStatus
		to   CampaignStatus
		ok   bool
	}{
		{"active to paused", CampaignStatusActive, CampaignStatusPaused, true},
		{"paused to active", CampaignStatusPaused, CampaignStatusActive, true},
		{"active to completed", CampaignStatusActive, CampaignStatusCompleted, true},
		{"paused to cancelled", CampaignStatusPaused, CampaignStatusCancelled, true},
		{"active to active", CampaignStatusActive, CampaignStatusActive, false},
		{"completed is terminal", CampaignStatusCompleted, CampaignStatusActive, false},
		{"cancelled is terminal", CampaignStatusCancelled, CampaignStatusPaused, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Campaign{Status: tt.from}
			assert.Equal(t, tt.ok, c.CanTransitionTo(tt.to))
		})
	}
}

func TestCampaign_CanManage(t *testing.T) {
	organizer := uuid.New()
	admin := uuid.New()
	c := &Campaign{Organizer: organizer, Admin: admin}

	assert.True(t, c.CanManage(organizer))
	assert.True(t, c.CanManage(admin))
	assert.False(t, c.CanManage(uuid.New()))
}

func TestRestrictedWallet_Balance(t *testing.T) {
	w := &RestrictedWallet{TotalReceived: 500, TotalSpent: 50}
	assert.Equal(t, int64(450), w.Balance())
}

func TestValidCategory(t *testing.T) {
	for _, c := range []SpendCategory{
		CategoryFood, CategoryMedicine, CategoryShelter,
		CategoryEducation, CategoryClothing, CategoryOther,
	} {
		assert.True(t, ValidCategory(c), string(c))
	}
	assert.False(t, ValidCategory(SpendCategory("GADGETS")))
	assert.False(t, ValidCategory(SpendCategory("")))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleOrganizer))
	assert.True(t, ValidRole(RoleMerchant))
	assert.False(t, ValidRole(Role("SUPERUSER")))
}

func TestBeneficiaryApplication_States(t *testing.T) {
	a := &BeneficiaryApplication{State: ApplicationStateApplied}
	assert.True(t, a.IsPending())
	assert.False(t, a.IsTerminal())

	a.State = ApplicationStateApproved
	assert.False(t, a.IsPending())
	assert.True(t, a.IsTerminal())

	a.State = ApplicationStateRejected
	assert.True(t, a.IsTerminal())
}
