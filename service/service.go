package service

import (
	"context"
	"fmt"
	"log/slog"

	"ingexai/chunker"
	"ingexai/external"
	"ingexai/extract"
	"ingexai/model"
	"ingexai/store"
	"ingexai/types"
	"ingexai/vectorstore"
)

const DefaultTopK = 5

// DocumentService runs the ingestion and retrieval pipelines. The relational
// store is the source of truth; the vector index is derived state owned by
// the service and kept consistent on delete and rebuild.
type DocumentService struct {
	logger    *slog.Logger
	store     store.DBStorer
	embedder  model.EmbedderInterface
	index     *vectorstore.Index
	external  external.Client
	chunkSize int
}

func New(storer store.DBStorer, embedder model.EmbedderInterface, index *vectorstore.Index, ext external.Client, chunkSize int) *DocumentService {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	return &DocumentService{
		logger:    slog.Default(),
		store:     storer,
		embedder:  embedder,
		index:     index,
		external:  ext,
		chunkSize: chunkSize,
	}
}

// Ingest turns an uploaded file into a persisted document with indexed
// chunks. Validation and extraction failures abort before any write. Once
// the document row is committed it is not rolled back: a failure in the chunk
// loop marks the document "failed" and leaves already-processed chunks in
// place.
func (s *DocumentService) Ingest(ctx context.Context, owner *types.User, filename, contentType string, data []byte) (*types.IngestResult, error) {
	if !types.IsSupportedContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedMediaType, contentType)
	}

	text, err := extract.Extract(contentType, data)
	if err != nil {
		return nil, err
	}

	doc := &types.Document{
		Name:    filename,
		OwnerID: owner.ID,
		Content: text,
		Status:  types.DocStatusPending,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}

	// Best-effort notification. A failure here never aborts ingestion.
	extStatus, extID := "", ""
	if ext, err := s.external.CreateDocument(ctx, filename, owner.Username); err != nil {
		s.logger.Warn("external document creation failed", "document_id", doc.ID, "error", err)
	} else {
		extStatus, extID = ext.Status, ext.ExternalID
	}

	chunks, err := chunker.Split(text, s.chunkSize)
	if err != nil {
		return nil, err
	}

	for idx, content := range chunks {
		embedding, err := s.embedder.Embed(content)
		if err != nil {
			return nil, s.failIngest(ctx, doc.ID, idx, err)
		}

		chunk := &types.Chunk{
			DocumentID: doc.ID,
			Index:      idx,
			Text:       content,
			Embedding:  embedding,
			Status:     types.ChunkStatusActive,
		}
		// The durable row id becomes the index key, so the chunk must be
		// persisted before its vector is inserted.
		if err := s.store.SaveChunk(ctx, chunk); err != nil {
			return nil, s.failIngest(ctx, doc.ID, idx, err)
		}
		s.index.Insert(chunk.ID, embedding)
	}

	if err := s.store.SetDocumentStatus(ctx, doc.ID, types.DocStatusComplete); err != nil {
		return nil, err
	}

	s.logger.Info("document ingested",
		"document_id", doc.ID, "owner", owner.Username, "chunks", len(chunks))

	return &types.IngestResult{
		DocumentID:     doc.ID,
		ChunkCount:     len(chunks),
		ExternalStatus: extStatus,
		ExternalID:     extID,
	}, nil
}

func (s *DocumentService) failIngest(ctx context.Context, docID int64, chunkIndex int, cause error) error {
	s.logger.Error("ingestion failed mid-chunk",
		"document_id", docID, "chunk_index", chunkIndex, "error", cause)
	if err := s.store.SetDocumentStatus(ctx, docID, types.DocStatusFailed); err != nil {
		s.logger.Error("failed to mark document as failed", "document_id", docID, "error", err)
	}
	return cause
}

// SearchChunks embeds the query, asks the index for up to topK chunk ids and
// resolves them to rows, re-sorted to the index's ranking order. Ids with no
// backing row are dropped. topK is taken as given: the HTTP layer applies
// DefaultTopK when the caller omits it, and zero or negative values yield no
// results.
func (s *DocumentService) SearchChunks(ctx context.Context, query string, topK int) ([]types.Chunk, error) {
	queryVec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, err
	}

	ids := s.index.Search(queryVec, topK)
	if len(ids) == 0 {
		return nil, nil
	}

	chunks, err := s.store.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]types.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.ID] = chunk
	}
	ranked := make([]types.Chunk, 0, len(chunks))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			ranked = append(ranked, chunk)
		}
	}
	return ranked, nil
}

// DeleteDocument removes the document, its chunk rows and their vector index
// entries. The external delete is best-effort, as on ingestion.
func (s *DocumentService) DeleteDocument(ctx context.Context, owner *types.User, docID int64) (*external.Result, error) {
	doc, err := s.store.GetDocumentByID(ctx, docID, owner.ID)
	if err != nil {
		return nil, err
	}

	extResult := &external.Result{}
	if res, err := s.external.DeleteDocument(ctx, fmt.Sprintf("ext_%s", doc.Name)); err != nil {
		s.logger.Warn("external document deletion failed", "document_id", docID, "error", err)
	} else {
		extResult = res
	}

	chunkIDs, err := s.store.DeleteChunksByDocID(ctx, docID)
	if err != nil {
		return nil, err
	}
	for _, id := range chunkIDs {
		s.index.Evict(id)
	}

	if err := s.store.DeleteDocument(ctx, docID); err != nil {
		return nil, err
	}

	s.logger.Info("document deleted",
		"document_id", docID, "owner", owner.Username, "chunks_removed", len(chunkIDs))
	return extResult, nil
}

// RebuildIndex repopulates the vector index from the chunk rows. The index
// is a rebuildable cache, so this runs at startup and may be re-run at any
// time to reconcile the two.
func (s *DocumentService) RebuildIndex(ctx context.Context) (int, error) {
	entries, err := s.store.ListChunkEmbeddings(ctx)
	if err != nil {
		return 0, err
	}

	s.index.Clear()
	for _, entry := range entries {
		s.index.Insert(entry.ChunkID, entry.Embedding)
	}
	return len(entries), nil
}
