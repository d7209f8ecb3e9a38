package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/constants"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

// Outcome is what a finished pipeline run records on its ledger row.
type Outcome struct {
	Success         bool
	Pages           int
	TextOutputPath  string
	TableOutputPath string
	ErrorMessage    string
}

type DocumentRepository interface {
	Create(ctx context.Context, filename, sourcePath, kind string) (*entity.DocumentRecord, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Finish(ctx context.Context, id uuid.UUID, out Outcome) error
	Get(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, error)
	List(ctx context.Context, limit int) ([]entity.DocumentRecord, error)
}

type documentRepo struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

func NewDocumentRepository(db *DB, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{db: db.SQL, log: log, now: func() time.Time { return time.Now().UTC() }}
}

const documentColumns = `id, filename, source_path, kind, status, pages, text_output_path,
	table_output_path, error_message, created_at, started_at, finished_at`

func (r *documentRepo) Create(ctx context.Context, filename, sourcePath, kind string) (*entity.DocumentRecord, error) {
	rec := &entity.DocumentRecord{
		ID:         uuid.New(),
		Filename:   filename,
		SourcePath: sourcePath,
		Kind:       kind,
		Status:     constants.JobStatusQueued,
		CreatedAt:  r.now(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, source_path, kind, status, pages, created_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6)`,
		rec.ID.String(), rec.Filename, rec.SourcePath, rec.Kind, string(rec.Status), rec.CreatedAt,
	)
	if err != nil {
		r.log.Error("document create failed", "filename", filename, "err", err)
		return nil, fmt.Errorf("%w: create document: %v", common.ErrDatabase, err)
	}
	r.log.Info("document queued", "document_id", rec.ID, "filename", filename, "kind", kind)
	return rec, nil
}

func (r *documentRepo) MarkRunning(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, started_at = $2 WHERE id = $3`,
		string(constants.JobStatusRunning), r.now(), id.String(),
	)
	if err != nil {
		r.log.Error("document mark running failed", "document_id", id, "err", err)
		return fmt.Errorf("%w: mark running: %v", common.ErrDatabase, err)
	}
	return expectOneRow(res, id)
}

func (r *documentRepo) Finish(ctx context.Context, id uuid.UUID, out Outcome) error {
	status := constants.JobStatusSucceeded
	if !out.Success {
		status = constants.JobStatusFailed
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents
		 SET status = $1, pages = $2, text_output_path = $3, table_output_path = $4,
		     error_message = $5, finished_at = $6
		 WHERE id = $7`,
		string(status), out.Pages, nullString(out.TextOutputPath), nullString(out.TableOutputPath),
		nullString(out.ErrorMessage), r.now(), id.String(),
	)
	if err != nil {
		r.log.Error("document finish failed", "document_id", id, "err", err)
		return fmt.Errorf("%w: finish document: %v", common.ErrDatabase, err)
	}
	if out.Success {
		r.log.Info("document finished", "document_id", id, "status", status, "pages", out.Pages)
	} else {
		r.log.Warn("document finished", "document_id", id, "status", status, "error", out.ErrorMessage)
	}
	return expectOneRow(res, id)
}

func (r *documentRepo) Get(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id.String())
	rec, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", fmt.Sprintf("document %s not found", id), common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get document: %v", common.ErrDatabase, err)
	}
	return rec, nil
}

// List returns the newest documents first. limit <= 0 means 100.
func (r *documentRepo) List(ctx context.Context, limit int) ([]entity.DocumentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	out := []entity.DocumentRecord{}
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", common.ErrDatabase, err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", common.ErrDatabase, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*entity.DocumentRecord, error) {
	var (
		rec                   entity.DocumentRecord
		status                string
		textPath, tablePath   sql.NullString
		errMsg                sql.NullString
		startedAt, finishedAt sql.NullTime
	)
	err := s.Scan(&rec.ID, &rec.Filename, &rec.SourcePath, &rec.Kind, &status, &rec.Pages,
		&textPath, &tablePath, &errMsg, &rec.CreatedAt, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = constants.JobStatus(status)
	rec.TextOutputPath = stringPtr(textPath)
	rec.TableOutputPath = stringPtr(tablePath)
	rec.ErrorMessage = stringPtr(errMsg)
	rec.StartedAt = timePtr(startedAt)
	rec.FinishedAt = timePtr(finishedAt)
	return &rec, nil
}

func expectOneRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil
	}
	if n == 0 {
		return common.NewAppError("NOT_FOUND", fmt.Sprintf("document %s not found", id), common.ErrNotFound)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
