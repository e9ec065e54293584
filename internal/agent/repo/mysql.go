package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/voicecv-core/server/internal/agent/model"
	errx "github.com/voicecv-core/server/internal/core/error"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// sessionRow is the cv_sessions table.
type sessionRow struct {
	ID         string         `gorm:"type:char(36);primaryKey"`
	Turns      datatypes.JSON `gorm:"type:json"`
	CV         datatypes.JSON `gorm:"column:cv_json;type:json"`
	IsComplete bool           `gorm:"not null;default:false;index:idx_cv_sessions_complete"`
	Version    int64          `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"type:datetime(6)"`
	UpdatedAt  time.Time      `gorm:"type:datetime(6)"`
}

func (sessionRow) TableName() string {
	return "cv_sessions"
}

func toRow(s *model.Session) (*sessionRow, error) {
	turns, err := json.Marshal(s.Turns)
	if err != nil {
		return nil, fmt.Errorf("marshal turns: %w", err)
	}
	cv, err := json.Marshal(s.CV)
	if err != nil {
		return nil, fmt.Errorf("marshal cv: %w", err)
	}
	return &sessionRow{
		ID:         s.ID,
		Turns:      datatypes.JSON(turns),
		CV:         datatypes.JSON(cv),
		IsComplete: s.IsComplete,
		Version:    s.Version,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}, nil
}

func fromRow(row *sessionRow) (*model.Session, error) {
	s := &model.Session{
		ID:         row.ID,
		Turns:      []model.Turn{},
		CV:         model.EmptyCV(),
		IsComplete: row.IsComplete,
		Version:    row.Version,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if len(row.Turns) > 0 {
		if err := json.Unmarshal(row.Turns, &s.Turns); err != nil {
			return nil, fmt.Errorf("unmarshal turns: %w", err)
		}
		if s.Turns == nil {
			s.Turns = []model.Turn{}
		}
	}
	if len(row.CV) > 0 {
		if err := json.Unmarshal(row.CV, &s.CV); err != nil {
			return nil, fmt.Errorf("unmarshal cv: %w", err)
		}
	}
	return s, nil
}

type MySQLSessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMySQLSessionRepository(db *gorm.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db, now: time.Now}
}

// Migrate creates or updates the cv_sessions table.
func (r *MySQLSessionRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&sessionRow{}); err != nil {
		return errx.WrapSQL(fmt.Errorf("migrate cv_sessions: %w", err))
	}
	return nil
}

func (r *MySQLSessionRepository) Create(ctx context.Context) (*model.Session, error) {
	s := model.NewSession(uuid.NewString(), r.now())
	s.Version = 1

	row, err := toRow(s)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		logx.Error().Err(err).Str("session_id", s.ID).Msg("failed to insert session")
		return nil, errx.WrapSQL(err)
	}
	return s, nil
}

func (r *MySQLSessionRepository) Load(ctx context.Context, sessionID string) (*model.Session, error) {
	var row sessionRow
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errx.ErrSessionNotFound
	}
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session")
		return nil, errx.WrapSQL(err)
	}
	return fromRow(&row)
}

// Save updates the row only while its version still matches session.Version.
func (r *MySQLSessionRepository) Save(ctx context.Context, session *model.Session) error {
	row, err := toRow(session)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Model(&sessionRow{}).
		Where("id = ? AND version = ?", session.ID, session.Version).
		Updates(map[string]any{
			"turns":       row.Turns,
			"cv_json":     row.CV,
			"is_complete": row.IsComplete,
			"updated_at":  row.UpdatedAt,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		logx.Error().Err(res.Error).Str("session_id", session.ID).Msg("failed to update session")
		return errx.WrapSQL(res.Error)
	}
	if res.RowsAffected == 1 {
		session.Version++
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&sessionRow{}).Where("id = ?", session.ID).Count(&count).Error; err != nil {
		return errx.WrapSQL(err)
	}
	if count == 0 {
		return errx.ErrSessionNotFound
	}
	logx.Warn().Str("session_id", session.ID).Int64("version", session.Version).Msg("stale session write rejected")
	return errx.ErrVersionConflict
}

func (r *MySQLSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&sessionRow{}).Error; err != nil {
		return errx.WrapSQL(err)
	}
	return nil
}

var _ model.SessionRepository = (*MySQLSessionRepository)(nil)
