package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"clinicbook/internal/config"
)

// BackupService periodically copies the sqlite file and the fallback
// journal into a backup directory. Plain file copies are enough here:
// sqlite keeps the main database file consistent between transactions,
// and the fallback store replaces its file atomically on every write.
type BackupService struct {
	sources []string
	cfg     config.BackupConfig
	logger  *zerolog.Logger
}

// NewBackupService backs up the given source files on cfg's schedule.
func NewBackupService(cfg config.BackupConfig, logger *zerolog.Logger, sources ...string) *BackupService {
	return &BackupService{sources: sources, cfg: cfg, logger: logger}
}

// Start runs backups until ctx is cancelled. It returns immediately
// when backups are disabled.
func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}

	interval := time.Duration(s.cfg.IntervalHours) * time.Hour
	s.logger.Info().Dur("interval", interval).Str("path", s.cfg.StoragePath).Msg("backup service started")

	if err := s.PerformBackup(); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PerformBackup(); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			s.CleanupOldBackups()
		}
	}
}

// PerformBackup copies every source file into a timestamped set.
// Missing sources are skipped; the fallback journal does not exist
// until the first outage write.
func (s *BackupService) PerformBackup() error {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	for _, src := range s.sources {
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst := filepath.Join(s.cfg.StoragePath, fmt.Sprintf("%s_%s", timestamp, filepath.Base(src)))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("backup %s: %w", src, err)
		}
		s.logger.Info().Str("source", src).Str("backup", dst).Msg("backup written")
	}
	return nil
}

// CleanupOldBackups removes backup files older than the retention.
func (s *BackupService) CleanupOldBackups() {
	if s.cfg.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("read backup directory for cleanup")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("deleting old backup")
			os.Remove(filepath.Join(s.cfg.StoragePath, file.Name()))
		}
	}
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	return err
}
