package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCard(t *testing.T) {
	tenantID := uuid.New()
	boardID := uuid.New()

	card, err := NewCard(tenantID, boardID, "Fix flaky deploy")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, tenantID, card.TenantID)
	assert.Equal(t, boardID, card.BoardID)
	assert.Equal(t, CardStatusDrafted, card.Status)
	assert.Nil(t, card.ColumnID)
	assert.False(t, card.LastActiveAt.IsZero())
	assert.False(t, card.CreatedAt.IsZero())

	// An empty title is allowed at draft time; publish fills the default.
	card, err = NewCard(tenantID, boardID, "")
	require.NoError(t, err)
	assert.Empty(t, card.Title)

	_, err = NewCard(uuid.Nil, boardID, "x")
	assert.ErrorIs(t, err, ErrCardTenantIDEmpty)

	_, err = NewCard(tenantID, uuid.Nil, "x")
	assert.ErrorIs(t, err, ErrCardBoardIDEmpty)
}

func TestCardValidate(t *testing.T) {
	now := time.Now().UTC()
	columnID := uuid.New()

	valid := Card{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		BoardID:  uuid.New(),
		ColumnID: &columnID,
		Status:   CardStatusPublished,
	}
	require.NoError(t, valid.Validate())

	invalid := valid
	invalid.ID = uuid.Nil
	assert.ErrorIs(t, invalid.Validate(), ErrCardIDEmpty)

	invalid = valid
	invalid.Status = "archived"
	assert.ErrorIs(t, invalid.Validate(), ErrCardStatusInvalid)

	// closedAt and postponedAt never coexist after a completed transition.
	invalid = valid
	invalid.ClosedAt = &now
	invalid.PostponedAt = &now
	assert.ErrorIs(t, invalid.Validate(), ErrCardStateConflict)
}

func TestCardEffectiveState(t *testing.T) {
	now := time.Now().UTC()
	columnID := uuid.New()

	tests := []struct {
		name string
		card Card
		want EffectiveState
	}{
		{
			name: "drafted wins over everything",
			card: Card{Status: CardStatusDrafted, ClosedAt: &now, ColumnID: &columnID},
			want: StateDrafted,
		},
		{
			name: "closed wins over postponed fields being clear",
			card: Card{Status: CardStatusPublished, ClosedAt: &now, ColumnID: &columnID},
			want: StateClosed,
		},
		{
			name: "postponed",
			card: Card{Status: CardStatusPublished, PostponedAt: &now},
			want: StateNotNow,
		},
		{
			name: "published without a column awaits triage",
			card: Card{Status: CardStatusPublished},
			want: StateTriage,
		},
		{
			name: "published open triaged card is active",
			card: Card{Status: CardStatusPublished, ColumnID: &columnID},
			want: StateActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.card.EffectiveState())
		})
	}
}
