package ingest_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/ingest"
	testutils "github.com/dfernandezmOnesec/vea-connect-go/pkg/utils/test"
)

var _ = Describe("Pool", func() {
	var (
		fast     *testutils.MockCache
		embedder *testutils.MockEmbedder
		vectors  *testutils.MockVectorDriver
		now      time.Time
	)

	newPool := func() *ingest.Pool {
		p, err := ingest.NewPoolWithClock(&ingest.Config{
			Cache:      fast,
			Embedder:   embedder,
			Vectors:    vectors,
			NumWorkers: 1,
			ChunkSize:  4,
			Overlap:    0,
			Logger:     zap.NewNop(),
		}, func() time.Time { return now })
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	BeforeEach(func() {
		fast = testutils.NewMockCache()
		embedder = testutils.NewMockEmbedder()
		vectors = testutils.NewMockVectorDriver()
		now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	It("chunks, embeds and indexes an enqueued document", func() {
		p := newPool()
		Expect(p.Enqueue(ingest.Job{
			DocumentID: "doc-1",
			BlobKey:    "uploads/doc-1.pdf",
			Text:       "a b c d e f g h",
		})).To(BeTrue())
		p.Close()

		Expect(vectors.Records).To(HaveLen(2))
		Expect(vectors.Records[0].DocumentID).To(Equal("doc-1"))
		Expect(vectors.Records[0].ChunkID).To(Equal("0"))
		Expect(vectors.Records[0].SourceText).To(Equal("a b c d"))
		Expect(vectors.Records[1].ChunkID).To(Equal("1"))
		Expect(vectors.Records[0].CreatedAt).To(Equal(now))
	})

	It("marks the document in the cache after indexing", func() {
		p := newPool()
		p.Enqueue(ingest.Job{DocumentID: "doc-1", BlobKey: "uploads/doc-1.pdf", Text: "a b c d e"})
		p.Close()

		raw, ok := fast.Entries[cache.DocMetaKey("doc-1")]
		Expect(ok).To(BeTrue())

		var meta ingest.DocMeta
		Expect(json.Unmarshal([]byte(raw), &meta)).To(Succeed())
		Expect(meta.DocumentID).To(Equal("doc-1"))
		Expect(meta.BlobKey).To(Equal("uploads/doc-1.pdf"))
		Expect(meta.ChunkCount).To(Equal(2))

		Expect(fast.Entries[cache.DocChunksKey("doc-1")]).To(Equal("2"))
		Expect(fast.SetTTLs[cache.DocMetaKey("doc-1")]).To(Equal(ingest.DefaultDocTTL))
	})

	It("skips chunks whose embedding fails and indexes the rest", func() {
		embedder.FailOn = "a b c d"
		p := newPool()
		p.Enqueue(ingest.Job{DocumentID: "doc-1", Text: "a b c d e f"})
		p.Close()

		Expect(vectors.Records).To(HaveLen(1))
		Expect(vectors.Records[0].SourceText).To(Equal("e f"))
	})

	It("ignores documents with no text", func() {
		p := newPool()
		p.Enqueue(ingest.Job{DocumentID: "doc-1", Text: "   "})
		p.Close()

		Expect(vectors.Records).To(BeEmpty())
		Expect(fast.Entries).To(BeEmpty())
	})
})
