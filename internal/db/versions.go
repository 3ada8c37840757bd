package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-editor/internal/types"
)

// CreateVersion stores an immutable snapshot of a document
func (db *DB) CreateVersion(ctx context.Context, userID string, document any) (*types.DocumentVersion, error) {
	jsonBytes, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	id := uuid.New()
	var createdAt time.Time
	err = db.pool.QueryRow(ctx,
		`INSERT INTO document_versions (id, user_id, document)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		id, userID, jsonBytes,
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}
	return &types.DocumentVersion{VersionID: id.String(), UserID: userID, CreatedAt: createdAt}, nil
}

// GetVersion retrieves a stored version including its document
func (db *DB) GetVersion(ctx context.Context, versionID string) (*types.DocumentVersion, error) {
	id, err := uuid.Parse(versionID)
	if err != nil {
		return nil, fmt.Errorf("invalid version id %q: %w", versionID, err)
	}

	var v types.DocumentVersion
	var docBytes []byte
	var vid uuid.UUID
	err = db.pool.QueryRow(ctx,
		`SELECT id, user_id, document, created_at FROM document_versions WHERE id = $1`,
		id,
	).Scan(&vid, &v.UserID, &docBytes, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	v.VersionID = vid.String()

	var doc any
	if err := json.Unmarshal(docBytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode version %s: %w", versionID, err)
	}
	v.Document = doc
	return &v, nil
}
