package deletion_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/deletion"
	testutils "github.com/dfernandezmOnesec/vea-connect-go/pkg/utils/test"
)

var _ = Describe("Orchestrator", func() {
	var (
		ctx       context.Context
		store     *testutils.MockStore
		fast      *testutils.MockCache
		vectors   *testutils.MockVectorDriver
		publisher *testutils.MockPublisher
	)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newOrchestrator := func() *deletion.Orchestrator {
		return deletion.NewOrchestratorWithClock(store, fast, vectors, publisher,
			deletion.Config{}, zap.NewNop(), func() time.Time { return now })
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = testutils.NewMockStore()
		fast = testutils.NewMockCache()
		vectors = testutils.NewMockVectorDriver()
		publisher = testutils.NewMockPublisher()
	})

	It("rejects a request with no identifiers without touching any backend", func() {
		o := newOrchestrator()

		_, err := o.Delete(ctx, deletion.Request{})
		Expect(err).To(MatchError(deletion.ErrMissingIdentifiers))

		Expect(store.DeletedKeys).To(BeEmpty())
		Expect(fast.DeletedKeys).To(BeEmpty())
		Expect(vectors.DeletedDocuments).To(BeEmpty())
		Expect(publisher.DocumentDeleted).To(BeEmpty())
	})

	It("deletes from all three backends on a full request", func() {
		store.Blobs["uploads/doc-1.pdf"] = []byte("pdf")
		o := newOrchestrator()

		result, err := o.Delete(ctx, deletion.Request{DocumentID: "doc-1", BlobKey: "uploads/doc-1.pdf"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success()).To(BeTrue())
		Expect(result.BlobDeleted).To(BeTrue())
		Expect(result.CacheDeleted).To(BeTrue())
		Expect(result.EmbeddingsDeleted).To(BeTrue())

		Expect(store.DeletedKeys).To(ConsistOf("uploads/doc-1.pdf"))
		Expect(fast.DeletedKeys).To(ConsistOf(
			cache.DocMetaKey("doc-1"),
			cache.DocChunksKey("doc-1"),
			cache.EmbeddingKey("doc-1"),
		))
		Expect(vectors.DeletedDocuments).To(ConsistOf("doc-1"))
	})

	It("treats an absent blob key as trivially deleted", func() {
		o := newOrchestrator()

		result, err := o.Delete(ctx, deletion.Request{DocumentID: "doc-1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success()).To(BeTrue())
		Expect(result.BlobDeleted).To(BeTrue())
		Expect(store.DeletedKeys).To(BeEmpty())
	})

	It("treats an absent document id as trivially deleted for cache and embeddings", func() {
		o := newOrchestrator()

		result, err := o.Delete(ctx, deletion.Request{BlobKey: "uploads/doc-1.pdf"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success()).To(BeTrue())
		Expect(fast.DeletedKeys).To(BeEmpty())
		Expect(vectors.DeletedDocuments).To(BeEmpty())
	})

	It("reports a cache failure without blocking the other backends", func() {
		fast.FailDelete = true
		store.Blobs["uploads/doc-1.pdf"] = []byte("pdf")
		o := newOrchestrator()

		result, err := o.Delete(ctx, deletion.Request{DocumentID: "doc-1", BlobKey: "uploads/doc-1.pdf"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success()).To(BeFalse())
		Expect(result.BlobDeleted).To(BeTrue())
		Expect(result.CacheDeleted).To(BeFalse())
		Expect(result.EmbeddingsDeleted).To(BeTrue())

		Expect(result.Errors).To(HaveLen(1))
		Expect(result.Errors[0].Backend).To(Equal(deletion.BackendCache))
		Expect(vectors.DeletedDocuments).To(ConsistOf("doc-1"))
	})

	It("orders multi-backend errors blob, cache, embeddings", func() {
		store.FailDelete = true
		fast.FailDelete = true
		vectors.FailDelete = true
		o := newOrchestrator()

		result, err := o.Delete(ctx, deletion.Request{DocumentID: "doc-1", BlobKey: "uploads/doc-1.pdf"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Errors).To(HaveLen(3))
		Expect(result.Errors[0].Backend).To(Equal(deletion.BackendBlob))
		Expect(result.Errors[1].Backend).To(Equal(deletion.BackendCache))
		Expect(result.Errors[2].Backend).To(Equal(deletion.BackendEmbeddings))
	})

	It("is idempotent", func() {
		store.Blobs["uploads/doc-1.pdf"] = []byte("pdf")
		o := newOrchestrator()

		req := deletion.Request{DocumentID: "doc-1", BlobKey: "uploads/doc-1.pdf"}
		first, err := o.Delete(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Success()).To(BeTrue())

		second, err := o.Delete(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Success()).To(BeTrue())
	})

	It("publishes a deletion event describing the fan-out", func() {
		fast.FailDelete = true
		o := newOrchestrator()

		_, err := o.Delete(ctx, deletion.Request{DocumentID: "doc-1", BlobKey: "uploads/doc-1.pdf"})
		Expect(err).NotTo(HaveOccurred())

		Expect(publisher.DocumentDeleted).To(HaveLen(1))
		event := publisher.DocumentDeleted[0]
		Expect(event.DocumentID).To(Equal("doc-1"))
		Expect(event.BlobKey).To(Equal("uploads/doc-1.pdf"))
		Expect(event.CacheDeleted).To(BeFalse())
		Expect(event.Errors).To(HaveLen(1))
		Expect(event.EmittedAt).To(Equal(now))
		Expect(event.EventID).NotTo(BeEmpty())
	})

	It("does not fail the deletion when publishing fails", func() {
		publisher.FailPublish = true
		o := newOrchestrator()

		result, err := o.Delete(ctx, deletion.Request{DocumentID: "doc-1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success()).To(BeTrue())
	})
})
