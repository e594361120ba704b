package repository

import (
	"context"

	"github.com/agrispine/server/models"
)

// MemberRepository, köy odalarına katılmış kullanıcıların dizini.
//
// Üyelik join_village ile kaydedilir ve hiç silinmez; okundu
// bilgisi hesaplanırken "oda üyeleri" buradan okunur.
type MemberRepository interface {
	// Upsert, üyeyi ekler ya da adını ve last_seen_at'ini günceller.
	// joined_at ilk katılımda yazılır, sonra değişmez.
	Upsert(ctx context.Context, member *models.VillageMember) error
	ListByVillage(ctx context.Context, village string) ([]models.VillageMember, error)
}
