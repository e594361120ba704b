// Package repository, kalıcı depolama sözleşmelerini ve implementasyonlarını barındırır.
//
// Her dosya çifti aynı düzeni izler: <entity>_repository.go interface'i tanımlar,
// sqlite_<entity>.go / mongo_<entity>.go onu karşılar. Constructor'lar her zaman
// interface döner; service katmanı hangi motorla konuştuğunu bilmez.
package repository

import (
	"context"

	"github.com/agrispine/server/models"
)

// MessageRepository, köy sohbet mesajlarının deposu.
//
// Her mutasyon tek bir mesaj düzeyinde atomiktir; mesajlar arası
// transaction varsayılmaz. Tekil işlemlerde olmayan id pkg.ErrNotFound döner,
// toplu işlemlerde ise sessizce atlanır.
type MessageRepository interface {
	// Insert, mesajı kalıcı hale getirir. ID boşsa üretilir, CreatedAt sıfırsa
	// sunucu saati yazılır.
	Insert(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)

	// ListVisible, köydeki viewerID'nin "benden sil" demediği tüm mesajları
	// created_at'e göre artan sırada döner (eşitlikte ekleme sırası).
	ListVisible(ctx context.Context, village, viewerID string) ([]models.Message, error)

	// MarkReadBulk, viewerID'yi köydeki her mesajın read_by setine ekler.
	// Yeni işaretlenen mesaj sayısını döner.
	MarkReadBulk(ctx context.Context, village, viewerID string) (int64, error)

	// SoftDeleteForEveryone, gönderen kendisi ise mesajı tombstone'a çevirir.
	// Gönderen değilse pkg.ErrUnauthorized döner ve mesaja dokunulmaz.
	SoftDeleteForEveryone(ctx context.Context, id, requesterID string) (*models.Message, error)

	// SoftDeleteOwned, ids içinden requesterID'ye ait olanları tombstone'a çevirir.
	SoftDeleteOwned(ctx context.Context, ids []string, requesterID string) ([]models.Message, error)

	// DeleteForMe, viewerID'yi var olan her mesajın deleted_by setine ekler.
	DeleteForMe(ctx context.Context, ids []string, viewerID string) (int64, error)

	ToggleStar(ctx context.Context, id, userID string) (*models.Message, error)
	SetReaction(ctx context.Context, id, userID, emoji string) (*models.Message, error)
	ClearReaction(ctx context.Context, id, userID string) (*models.Message, error)

	// SweepUnstarred, köyde hiç yıldızlanmamış tüm mesajları fiziksel olarak siler.
	SweepUnstarred(ctx context.Context, village string) (int64, error)
}
