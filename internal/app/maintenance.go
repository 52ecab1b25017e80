package app

import (
	"bytes"
	"fmt"
	"os"

	"berthplan/internal/archive"
	"berthplan/internal/berth"
	"berthplan/internal/config"
	"berthplan/internal/database"
	"berthplan/internal/database/migrations"
	"berthplan/internal/encryption"
)

// MigrateDatabase applies pending schema migrations to the configured database.
func MigrateDatabase(cfg *config.Config) error {
	store, err := database.NewStoreFromConfig(cfg.Database, cfg.HostID, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// DatabaseStatus reports the schema version of the configured database.
func DatabaseStatus(cfg *config.Config) (migrations.Status, error) {
	store, err := database.NewStoreFromConfig(cfg.Database, cfg.HostID, nil)
	if err != nil {
		return migrations.Status{}, fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	return store.MigrationStatus()
}

// NeedsPassphrase reports whether restoring or key setup asks for a passphrase.
func NeedsPassphrase(cfg *config.Config) bool {
	return cfg.Encryption.Type == "age"
}

// InitKeys generates the snapshot encryption key pair.
func InitKeys(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up keys: %w", err)
	}
	return nil
}

// RestoreSnapshot downloads the archived database snapshot for this host,
// decrypts it and writes it to dest. It returns the snapshot version.
// dest must not exist.
func RestoreSnapshot(cfg *config.Config, dest, passphrase string) (int64, error) {
	if _, err := os.Stat(dest); err == nil {
		return 0, fmt.Errorf("refusing to overwrite existing file %s", dest)
	}
	if len(cfg.Archives) == 0 {
		return 0, fmt.Errorf("no archives configured")
	}
	arc, err := archive.NewArchiveFromConfig(cfg.Archives[0])
	if err != nil {
		return 0, fmt.Errorf("creating archive: %w", err)
	}

	version, err := arc.SnapshotVersion(cfg.HostID, snapshotName)
	if err != nil {
		return 0, fmt.Errorf("checking archived snapshot version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("no snapshot archived for host %s", cfg.HostID)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}
	dc, err := enc.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking key: %w", err)
	}

	var sealed bytes.Buffer
	if err := arc.GetSnapshot(cfg.HostID, snapshotName, &sealed); err != nil {
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}

	if err := writeDecrypted(dc, &sealed, dest); err != nil {
		os.Remove(dest)
		return 0, err
	}
	return version, nil
}

func writeDecrypted(dc berth.DecryptionContext, sealed *bytes.Buffer, dest string) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if err := dc.Decrypt(sealed, f); err != nil {
		f.Close()
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}
