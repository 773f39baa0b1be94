package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"shoptill/internal/domain"
)

type AssistantRepo struct{ db *sqlx.DB }

func NewAssistantRepo(db *sqlx.DB) *AssistantRepo { return &AssistantRepo{db: db} }

func (r *AssistantRepo) Get(id string) (domain.ShopAssistant, error) {
	var a domain.ShopAssistant
	err := r.db.Get(&a, `SELECT id, name, active FROM shop_assistants WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return domain.ShopAssistant{}, err
	}
	return a, err
}

func (r *AssistantRepo) ListActive() ([]domain.ShopAssistant, error) {
	var out []domain.ShopAssistant
	err := r.db.Select(&out, `SELECT id, name, active FROM shop_assistants WHERE active = 1 ORDER BY name`)
	return out, err
}
