package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for every table the scheduling engine reads or
// writes.  coaches and service_tiers are owned by the profile service; they
// are declared here so a fresh database is usable on its own.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS coaches (
        id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        user_id      BIGINT UNSIGNED NOT NULL,
        display_name VARCHAR(120) NOT NULL DEFAULT '',
        created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        UNIQUE KEY uq_coaches_user (user_id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS service_tiers (
        id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        coach_id         BIGINT UNSIGNED NOT NULL,
        name             VARCHAR(120) NOT NULL,
        duration_minutes INT NOT NULL DEFAULT 60,
        price_cents      INT UNSIGNED NOT NULL DEFAULT 0,
        is_active        TINYINT(1) NOT NULL DEFAULT 1,
        KEY idx_tiers_coach (coach_id),
        CONSTRAINT fk_tiers_coach FOREIGN KEY (coach_id) REFERENCES coaches(id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS time_slots (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        coach_id   BIGINT UNSIGNED NOT NULL,
        start_time DATETIME NOT NULL,
        end_time   DATETIME NOT NULL,
        status     ENUM('available','booked') NOT NULL DEFAULT 'available',
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        KEY idx_slots_coach_start (coach_id, start_time),
        CONSTRAINT fk_slots_coach FOREIGN KEY (coach_id) REFERENCES coaches(id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sessions (
        id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        learner_id     BIGINT UNSIGNED NOT NULL,
        coach_id       BIGINT UNSIGNED NOT NULL,
        tier_id        BIGINT UNSIGNED NOT NULL,
        scheduled_time DATETIME NOT NULL,
        price_cents    INT UNSIGNED NOT NULL DEFAULT 0,
        status         ENUM('scheduled','completed','cancelled') NOT NULL DEFAULT 'scheduled',
        created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        KEY idx_sessions_learner (learner_id),
        KEY idx_sessions_coach_time (coach_id, scheduled_time),
        CONSTRAINT fk_sessions_coach FOREIGN KEY (coach_id) REFERENCES coaches(id),
        CONSTRAINT fk_sessions_tier FOREIGN KEY (tier_id) REFERENCES service_tiers(id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reschedule_requests (
        id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        session_id         BIGINT UNSIGNED NOT NULL,
        requester_id       BIGINT UNSIGNED NOT NULL,
        proposed_time      DATETIME NOT NULL,
        reason             VARCHAR(500) NOT NULL DEFAULT '',
        status             ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
        pending_session_id BIGINT UNSIGNED NULL,
        created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        responded_at       DATETIME NULL,
        KEY idx_reschedule_session (session_id),
        UNIQUE KEY uq_reschedule_pending (pending_session_id),
        CONSTRAINT fk_reschedule_session FOREIGN KEY (session_id) REFERENCES sessions(id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reviews (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        session_id BIGINT UNSIGNED NOT NULL,
        rater_id   BIGINT UNSIGNED NOT NULL,
        coach_id   BIGINT UNSIGNED NOT NULL,
        rating     TINYINT UNSIGNED NOT NULL,
        comment    TEXT NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        UNIQUE KEY uq_reviews_session_rater (session_id, rater_id),
        CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 1 AND 5),
        CONSTRAINT fk_reviews_session FOREIGN KEY (session_id) REFERENCES sessions(id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  Statements are idempotent, so it is
// safe to run on every deploy.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
