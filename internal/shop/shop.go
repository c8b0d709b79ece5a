// Package shop lets users spend gold on items. The only mutation path for
// stats is still the reward ledger: a purchase is one debit effect, plus an
// hp restore for items that carry one.
package shop

import (
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

type EffectType string

const (
	EffectHPRestore EffectType = "hp_restore"
	EffectShield    EffectType = "shield"
	EffectCosmetic  EffectType = "cosmetic"
)

// hpRestoreAmount is how much HP an hp_restore item heals, capped at HPMax
// through the ledger clamp.
const hpRestoreAmount = 20

type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Cost        int        `json:"cost"`
	Description string     `json:"description,omitempty"`
	EffectType  EffectType `json:"effect_type"`
}

type Purchase struct {
	ID          string       `json:"id"`
	UserID      model.UserID `json:"user_id"`
	ItemID      string       `json:"item_id"`
	ItemName    string       `json:"item_name"`
	Cost        int          `json:"cost"`
	PurchasedAt time.Time    `json:"purchased_at"`
}
