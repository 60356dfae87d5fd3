package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
)

type transcriptionRepo struct {
	pool *pgxpool.Pool
}

func NewTranscriptionRepository(pool *pgxpool.Pool) ports.TranscriptionRepository {
	return &transcriptionRepo{pool: pool}
}

func (r *transcriptionRepo) Create(ctx context.Context, t *domain.Transcription) error {
	query := `
		INSERT INTO transcription
			(id, created_at, updated_at, input_file, output_file, status,
			 error_message, model_version, note_count, audio_seconds,
			 duration_ms, cached)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	_, err := r.pool.Exec(ctx, query,
		t.ID, t.CreatedAt, t.UpdatedAt, t.InputFile, t.OutputFile,
		string(t.Status), t.ErrorMessage, t.ModelVersion, t.NoteCount,
		t.AudioSeconds, t.DurationMS, t.Cached,
	)
	if err != nil {
		return fmt.Errorf("create transcription: %w", err)
	}
	return nil
}

func (r *transcriptionRepo) UpdateResult(ctx context.Context, t *domain.Transcription) error {
	query := `
		UPDATE transcription
		SET updated_at=$1, output_file=$2, status=$3, error_message=$4,
			note_count=$5, audio_seconds=$6, duration_ms=$7
		WHERE id=$8
	`
	result, err := r.pool.Exec(ctx, query,
		t.UpdatedAt, t.OutputFile, string(t.Status), t.ErrorMessage,
		t.NoteCount, t.AudioSeconds, t.DurationMS, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transcription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTranscriptionNotFound
	}
	return nil
}

func (r *transcriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transcription, error) {
	query := `
		SELECT id, created_at, updated_at, input_file, output_file, status,
			   error_message, model_version, note_count, audio_seconds,
			   duration_ms, cached
		FROM transcription
		WHERE id = $1
	`
	t, err := scanTranscription(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTranscriptionNotFound
		}
		return nil, fmt.Errorf("get transcription by id: %w", err)
	}
	return t, nil
}

func (r *transcriptionRepo) List(ctx context.Context, filter ports.TranscriptionListFilter) ([]*domain.Transcription, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM transcription " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transcriptions: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, created_at, updated_at, input_file, output_file, status,
			   error_message, model_version, note_count, audio_seconds,
			   duration_ms, cached
		FROM transcription
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transcriptions: %w", err)
	}
	defer rows.Close()

	var items []*domain.Transcription
	for rows.Next() {
		t, err := scanTranscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transcription: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transcriptions: %w", err)
	}
	return items, total, nil
}

func scanTranscription(row pgx.Row) (*domain.Transcription, error) {
	var t domain.Transcription
	var status string
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.InputFile, &t.OutputFile,
		&status, &t.ErrorMessage, &t.ModelVersion, &t.NoteCount,
		&t.AudioSeconds, &t.DurationMS, &t.Cached,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TranscriptionStatus(status)
	return &t, nil
}
