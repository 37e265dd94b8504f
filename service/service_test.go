package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingexai/external"
	"ingexai/model"
	"ingexai/store"
	"ingexai/types"
	"ingexai/vectorstore"
)

// fakeStore is an in-memory DBStorer for exercising the pipelines without
// Postgres.
type fakeStore struct {
	users       map[int64]*types.User
	documents   map[int64]*types.Document
	chunks      map[int64]*types.Chunk
	nextDocID   int64
	nextChunkID int64

	saveChunkErrAt int // fail the Nth SaveChunk call (1-based), 0 = never
	saveChunkCalls int

	reverseGetByIDs bool // return GetChunksByIDs results in reverse id order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[int64]*types.User),
		documents: make(map[int64]*types.Document),
		chunks:    make(map[int64]*types.Chunk),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user *types.User) error {
	user.ID = int64(len(f.users) + 1)
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*types.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, types.ErrNotFound
}

func (f *fakeStore) SaveDocument(_ context.Context, doc *types.Document) error {
	f.nextDocID++
	doc.ID = f.nextDocID
	saved := *doc
	f.documents[doc.ID] = &saved
	return nil
}

func (f *fakeStore) GetDocumentByID(_ context.Context, docID, ownerID int64) (*types.Document, error) {
	doc, ok := f.documents[docID]
	if !ok || doc.OwnerID != ownerID {
		return nil, types.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeStore) GetDocumentsByOwner(_ context.Context, ownerID int64) ([]types.Document, error) {
	var docs []types.Document
	for _, doc := range f.documents {
		if doc.OwnerID == ownerID {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (f *fakeStore) RenameDocument(_ context.Context, docID int64, name string) error {
	doc, ok := f.documents[docID]
	if !ok {
		return types.ErrNotFound
	}
	doc.Name = name
	return nil
}

func (f *fakeStore) SetDocumentStatus(_ context.Context, docID int64, status string) error {
	doc, ok := f.documents[docID]
	if !ok {
		return types.ErrNotFound
	}
	doc.Status = status
	return nil
}

func (f *fakeStore) DeleteDocument(_ context.Context, docID int64) error {
	delete(f.documents, docID)
	return nil
}

func (f *fakeStore) SaveChunk(_ context.Context, c *types.Chunk) error {
	f.saveChunkCalls++
	if f.saveChunkErrAt > 0 && f.saveChunkCalls == f.saveChunkErrAt {
		return errors.New("chunk insert failed")
	}
	f.nextChunkID++
	c.ID = f.nextChunkID
	saved := *c
	f.chunks[c.ID] = &saved
	return nil
}

func (f *fakeStore) GetChunksByDocID(_ context.Context, docID int64) ([]types.Chunk, error) {
	var chunks []types.Chunk
	for _, c := range f.chunks {
		if c.DocumentID == docID {
			chunks = append(chunks, *c)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

func (f *fakeStore) GetChunksByIDs(_ context.Context, ids []int64) ([]types.Chunk, error) {
	var chunks []types.Chunk
	for _, id := range ids {
		if c, ok := f.chunks[id]; ok {
			chunks = append(chunks, *c)
		}
	}
	sort.Slice(chunks, func(i, j int) bool {
		if f.reverseGetByIDs {
			return chunks[i].ID > chunks[j].ID
		}
		return chunks[i].ID < chunks[j].ID
	})
	return chunks, nil
}

func (f *fakeStore) DeleteChunksByDocID(_ context.Context, docID int64) ([]int64, error) {
	var ids []int64
	for id, c := range f.chunks {
		if c.DocumentID == docID {
			ids = append(ids, id)
			delete(f.chunks, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) ListChunkEmbeddings(_ context.Context) ([]store.ChunkEmbedding, error) {
	var entries []store.ChunkEmbedding
	for id, c := range f.chunks {
		entries = append(entries, store.ChunkEmbedding{ChunkID: id, Embedding: c.Embedding})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ChunkID < entries[j].ChunkID })
	return entries, nil
}

var _ store.DBStorer = (*fakeStore)(nil)

func newTestService(t *testing.T, chunkSize int) (*DocumentService, *fakeStore, *vectorstore.Index) {
	t.Helper()
	fs := newFakeStore()
	index := vectorstore.NewIndex()
	svc := New(fs, model.NewMockEmbedder(), index, external.NewStubClient(), chunkSize)
	return svc, fs, index
}

func testUser() *types.User {
	return &types.User{ID: 1, Username: "alice"}
}

func TestIngestPlainText(t *testing.T) {
	svc, fs, index := newTestService(t, 0)

	result, err := svc.Ingest(context.Background(), testUser(), "hello.txt",
		types.ContentTypePlainText, []byte("Hello world"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.ChunkCount)
	assert.Equal(t, "created", result.ExternalStatus)
	assert.Equal(t, "ext_hello.txt", result.ExternalID)

	doc := fs.documents[result.DocumentID]
	require.NotNil(t, doc)
	assert.Equal(t, "Hello world", doc.Content)
	assert.Equal(t, types.DocStatusComplete, doc.Status)

	chunks, err := fs.GetChunksByDocID(context.Background(), result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, types.ChunkStatusActive, chunks[0].Status)

	assert.Equal(t, 1, index.Len())
	vec, ok := index.Get(chunks[0].ID)
	require.True(t, ok)
	assert.Equal(t, chunks[0].Embedding, vec)
}

func TestIngestChunkOrdering(t *testing.T) {
	svc, fs, index := newTestService(t, 2)

	words := "one two three four five"
	result, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte(words))
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunkCount)

	chunks, err := fs.GetChunksByDocID(context.Background(), result.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "one two", chunks[0].Text)
	assert.Equal(t, "three four", chunks[1].Text)
	assert.Equal(t, "five", chunks[2].Text)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
	}

	// Chunks are indexed in ascending chunk_index order.
	assert.Equal(t, []int64{chunks[0].ID, chunks[1].ID, chunks[2].ID},
		index.Search(nil, 3))
}

func TestIngestUnsupportedMediaType(t *testing.T) {
	svc, fs, index := newTestService(t, 0)

	_, err := svc.Ingest(context.Background(), testUser(), "cat.png",
		"image/png", []byte{0x89, 0x50})
	assert.ErrorIs(t, err, types.ErrUnsupportedMediaType)

	// No partial writes.
	assert.Empty(t, fs.documents)
	assert.Empty(t, fs.chunks)
	assert.Equal(t, 0, index.Len())
}

func TestIngestDecodingErrorNoWrites(t *testing.T) {
	svc, fs, index := newTestService(t, 0)

	_, err := svc.Ingest(context.Background(), testUser(), "broken.txt",
		types.ContentTypePlainText, []byte{0xff, 0xfe})
	assert.ErrorIs(t, err, types.ErrDecoding)
	assert.Empty(t, fs.documents)
	assert.Empty(t, fs.chunks)
	assert.Equal(t, 0, index.Len())
}

func TestIngestEmptyTextYieldsNoChunks(t *testing.T) {
	svc, fs, index := newTestService(t, 0)

	result, err := svc.Ingest(context.Background(), testUser(), "empty.txt",
		types.ContentTypePlainText, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ChunkCount)
	assert.Equal(t, types.DocStatusComplete, fs.documents[result.DocumentID].Status)
	assert.Equal(t, 0, index.Len())
}

func TestIngestMidLoopFailureMarksFailed(t *testing.T) {
	svc, fs, index := newTestService(t, 1)
	fs.saveChunkErrAt = 2

	_, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("one two three"))
	require.Error(t, err)

	// Document row survives and is marked failed; the first chunk stays
	// persisted and indexed, the rest are absent.
	require.Len(t, fs.documents, 1)
	for _, doc := range fs.documents {
		assert.Equal(t, types.DocStatusFailed, doc.Status)
	}
	assert.Len(t, fs.chunks, 1)
	assert.Equal(t, 1, index.Len())
}

func TestSearchChunks(t *testing.T) {
	svc, _, _ := newTestService(t, 1)

	result, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("one two three four five"))
	require.NoError(t, err)
	require.Equal(t, 5, result.ChunkCount)

	chunks, err := svc.SearchChunks(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "one", chunks[0].Text)
	assert.Equal(t, "two", chunks[1].Text)
	assert.Equal(t, "three", chunks[2].Text)
}

func TestSearchChunksExplicitZeroTopK(t *testing.T) {
	svc, _, _ := newTestService(t, 1)

	_, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("a b c d e f g h"))
	require.NoError(t, err)

	// An explicit zero asks for nothing; defaulting happens at the HTTP
	// boundary, not here.
	chunks, err := svc.SearchChunks(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSearchChunksNegativeTopK(t *testing.T) {
	svc, _, _ := newTestService(t, 1)

	_, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("a b c"))
	require.NoError(t, err)

	chunks, err := svc.SearchChunks(context.Background(), "anything", -1)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSearchChunksRankedByIndexOrder(t *testing.T) {
	svc, fs, _ := newTestService(t, 1)
	fs.reverseGetByIDs = true

	_, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("one two three"))
	require.NoError(t, err)

	// Even when the store yields rows in arbitrary order, results follow the
	// index's ranking.
	chunks, err := svc.SearchChunks(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.True(t, sort.SliceIsSorted(chunks, func(i, j int) bool {
		return chunks[i].ID < chunks[j].ID
	}))
}

func TestSearchChunksDropsStaleIDs(t *testing.T) {
	svc, fs, index := newTestService(t, 1)

	_, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("one two three"))
	require.NoError(t, err)

	// Simulate an index entry whose backing row is gone.
	index.Insert(999, []float32{0, 0, 0, 0, 0, 0, 0, 0})
	delete(fs.chunks, 2)

	chunks, err := svc.SearchChunks(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	for _, chunk := range chunks {
		assert.NotEqual(t, int64(999), chunk.ID)
		assert.NotEqual(t, int64(2), chunk.ID)
	}
}

func TestDeleteDocumentCascadesToIndex(t *testing.T) {
	svc, fs, index := newTestService(t, 1)

	result, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("one two three"))
	require.NoError(t, err)
	require.Equal(t, 3, index.Len())

	extResult, err := svc.DeleteDocument(context.Background(), testUser(), result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "deleted", extResult.Status)
	assert.Equal(t, "ext_words.txt", extResult.ExternalID)

	assert.Empty(t, fs.documents)
	assert.Empty(t, fs.chunks)
	assert.Equal(t, 0, index.Len(), "vectors must be evicted with their chunk rows")
}

func TestDeleteDocumentNotOwned(t *testing.T) {
	svc, _, _ := newTestService(t, 1)

	result, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("one two"))
	require.NoError(t, err)

	other := &types.User{ID: 2, Username: "bob"}
	_, err = svc.DeleteDocument(context.Background(), other, result.DocumentID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRebuildIndex(t *testing.T) {
	svc, _, index := newTestService(t, 1)

	_, err := svc.Ingest(context.Background(), testUser(), "words.txt",
		types.ContentTypePlainText, []byte("one two three four"))
	require.NoError(t, err)
	require.Equal(t, 4, index.Len())

	// Simulate a restart: index lost, store intact.
	index.Clear()
	require.Equal(t, 0, index.Len())

	count, err := svc.RebuildIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 4, index.Len())
	assert.Equal(t, []int64{1, 2, 3, 4}, index.Search(nil, 4))
}

func TestIngestLargeDocumentChunkCount(t *testing.T) {
	svc, _, index := newTestService(t, 0)

	// 1200 words with the default chunk size of 500 → 3 chunks.
	text := strings.TrimSpace(strings.Repeat("word ", 1200))
	result, err := svc.Ingest(context.Background(), testUser(), "big.txt",
		types.ContentTypePlainText, []byte(text))
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunkCount)
	assert.Equal(t, 3, index.Len())
}

func TestReingestSameContentNoDuplicateIndexEntries(t *testing.T) {
	svc, _, index := newTestService(t, 1)

	for i := 0; i < 2; i++ {
		_, err := svc.Ingest(context.Background(), testUser(),
			fmt.Sprintf("copy-%d.txt", i), types.ContentTypePlainText, []byte("same text"))
		require.NoError(t, err)
	}

	// Each upload gets fresh chunk ids, so entries accumulate but never
	// collide: one index entry per persisted chunk.
	assert.Equal(t, 2, index.Len())
}
