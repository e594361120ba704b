package repository

import "context"

// PresenceRepository, hangi kullanıcının hangi köy odasına şu an bağlı
// olduğunu tutar. Kalıcı değildir; süreç (veya Redis anahtarı) gidince silinir.
//
// Aynı kullanıcı birden fazla sekmeden bağlanabilir, bu yüzden sayaç tutulur:
// kullanıcı ancak son bağlantısı ayrıldığında çevrimdışı sayılır.
type PresenceRepository interface {
	Add(ctx context.Context, village, userID string) error
	Remove(ctx context.Context, village, userID string) error

	// Online, köyde en az bir açık bağlantısı olan kullanıcıları sıralı döner.
	Online(ctx context.Context, village string) ([]string, error)
}
