package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations, binary'ye gömülü migrations/ dizinini kök olarak döner.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// "migrations" sabit ve derleme zamanında gömülü; buraya düşülmez.
		panic(err)
	}
	return sub
}
