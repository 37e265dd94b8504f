package store

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"ingexai/types"
)

type DBStorer interface {
	CreateUser(context.Context, *types.User) error
	GetUserByUsername(context.Context, string) (*types.User, error)
	SaveDocument(context.Context, *types.Document) error
	GetDocumentByID(context.Context, int64, int64) (*types.Document, error)
	GetDocumentsByOwner(context.Context, int64) ([]types.Document, error)
	RenameDocument(context.Context, int64, string) error
	SetDocumentStatus(context.Context, int64, string) error
	DeleteDocument(context.Context, int64) error
	SaveChunk(context.Context, *types.Chunk) error
	GetChunksByDocID(context.Context, int64) ([]types.Chunk, error)
	GetChunksByIDs(context.Context, []int64) ([]types.Chunk, error)
	DeleteChunksByDocID(context.Context, int64) ([]int64, error)
	ListChunkEmbeddings(context.Context) ([]ChunkEmbedding, error)
}

// ChunkEmbedding is the projection used to rebuild the vector index from the
// authoritative chunk rows.
type ChunkEmbedding struct {
	ChunkID   int64
	Embedding []float32
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) CreateUser(ctx context.Context, user *types.User) error {
	query := `INSERT INTO users (username, hashed_password, is_admin)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return p.pool.QueryRow(ctx, query,
		user.Username, user.HashedPassword, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt)
}

func (p *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	user := &types.User{}
	err := p.pool.QueryRow(ctx,
		"SELECT id, username, hashed_password, is_admin, created_at FROM users WHERE username = $1",
		username,
	).Scan(&user.ID, &user.Username, &user.HashedPassword, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (p *PostgresStore) SaveDocument(ctx context.Context, doc *types.Document) error {
	query := `INSERT INTO documents (name, owner_id, content, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return p.pool.QueryRow(ctx, query,
		doc.Name, doc.OwnerID, doc.Content, doc.Status,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

// GetDocumentByID resolves a document owned by ownerID. A row owned by
// someone else is indistinguishable from a missing one.
func (p *PostgresStore) GetDocumentByID(ctx context.Context, docID, ownerID int64) (*types.Document, error) {
	doc := &types.Document{}
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, content, status, created_at, updated_at
		 FROM documents WHERE id = $1 AND owner_id = $2`,
		docID, ownerID,
	).Scan(&doc.ID, &doc.Name, &doc.OwnerID, &doc.Content, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) GetDocumentsByOwner(ctx context.Context, ownerID int64) ([]types.Document, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, owner_id, content, status, created_at, updated_at
		 FROM documents WHERE owner_id = $1 ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.OwnerID, &doc.Content,
			&doc.Status, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *PostgresStore) RenameDocument(ctx context.Context, docID int64, name string) error {
	_, err := p.pool.Exec(ctx,
		"UPDATE documents SET name = $2, updated_at = now() WHERE id = $1",
		docID, name,
	)
	return err
}

func (p *PostgresStore) SetDocumentStatus(ctx context.Context, docID int64, status string) error {
	_, err := p.pool.Exec(ctx,
		"UPDATE documents SET status = $2, updated_at = now() WHERE id = $1",
		docID, status,
	)
	return err
}

func (p *PostgresStore) DeleteDocument(ctx context.Context, docID int64) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", docID)
	return err
}

// SaveChunk inserts one chunk row and fills in its durable identifier. The
// pipeline indexes the vector only after this returns.
func (p *PostgresStore) SaveChunk(ctx context.Context, c *types.Chunk) error {
	query := `INSERT INTO document_chunks (document_id, chunk_index, chunk_text, embedding, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return p.pool.QueryRow(ctx, query,
		c.DocumentID, c.Index, c.Text, pgvector.NewVector(c.Embedding), c.Status,
	).Scan(&c.ID)
}

func (p *PostgresStore) GetChunksByDocID(ctx context.Context, docID int64) ([]types.Chunk, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, document_id, chunk_index, chunk_text, embedding, status
		 FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index`,
		docID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

func (p *PostgresStore) GetChunksByIDs(ctx context.Context, ids []int64) ([]types.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, document_id, chunk_index, chunk_text, embedding, status
		 FROM document_chunks WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteChunksByDocID removes all chunk rows of a document and returns their
// ids so the caller can evict the matching vector index entries.
func (p *PostgresStore) DeleteChunksByDocID(ctx context.Context, docID int64) ([]int64, error) {
	rows, err := p.pool.Query(ctx,
		"DELETE FROM document_chunks WHERE document_id = $1 RETURNING id", docID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *PostgresStore) ListChunkEmbeddings(ctx context.Context) ([]ChunkEmbedding, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT id, embedding FROM document_chunks ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ChunkEmbedding
	for rows.Next() {
		var entry ChunkEmbedding
		var vec pgvector.Vector
		if err := rows.Scan(&entry.ChunkID, &vec); err != nil {
			return nil, err
		}
		entry.Embedding = vec.Slice()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanChunks(rows pgx.Rows) ([]types.Chunk, error) {
	var chunks []types.Chunk
	for rows.Next() {
		var chunk types.Chunk
		var vec pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index,
			&chunk.Text, &vec, &chunk.Status); err != nil {
			return nil, err
		}
		chunk.Embedding = vec.Slice()
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (p *PostgresStore) createTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		hashed_password TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

	CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id BIGINT NOT NULL REFERENCES users(id),
		content TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_documents_owner_id ON documents(owner_id);

	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS document_chunks (
		id BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id),
		chunk_index INT NOT NULL,
		chunk_text TEXT NOT NULL,
		embedding vector(8),
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON document_chunks(document_id);
	`
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createTables(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
