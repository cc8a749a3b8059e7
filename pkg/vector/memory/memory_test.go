package memory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector/memory"
)

func rec(docID, chunkID string, emb []float32, createdAt time.Time) vector.Record {
	return vector.Record{
		DocumentID: docID,
		ChunkID:    chunkID,
		Embedding:  emb,
		SourceText: docID + "/" + chunkID,
		CreatedAt:  createdAt,
	}
}

var _ = Describe("In-Memory Vector Driver", func() {
	var (
		driver *memory.Driver
		ctx    context.Context
		base   time.Time
	)

	BeforeEach(func() {
		logger, _ := zap.NewDevelopment()
		driver = memory.NewDriver(memory.Config{Dimensions: 2}, logger)
		ctx = context.Background()
		base = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	})

	Describe("Add", func() {
		It("rejects records with mismatched dimensionality", func() {
			err := driver.Add(ctx, []vector.Record{
				rec("doc1", "c1", []float32{1, 0, 0}, base),
			})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("replaces a record with the same document and chunk id", func() {
			Expect(driver.Add(ctx, []vector.Record{rec("doc1", "c1", []float32{1, 0}, base)})).To(Succeed())
			Expect(driver.Add(ctx, []vector.Record{rec("doc1", "c1", []float32{0, 1}, base)})).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			Expect(driver.Add(ctx, []vector.Record{
				rec("doc1", "c1", []float32{1, 0}, base),
				rec("doc1", "c2", []float32{0, 1}, base.Add(time.Minute)),
				rec("doc2", "c1", []float32{0.9, 0.1}, base.Add(2*time.Minute)),
			})).To(Succeed())
		})

		It("returns results ordered by descending cosine similarity", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, vector.Scope{}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].ChunkID).To(Equal("c1"))
			Expect(results[0].DocumentID).To(Equal("doc1"))
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-9))
			Expect(results[2].Score).To(BeNumerically("~", 0.0, 1e-9))
		})

		It("never returns more than topK results", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, vector.Scope{}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("returns all candidates when fewer than topK exist", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, vector.Scope{}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
		})

		It("restricts results to the document scope", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, vector.Scope{DocumentID: "doc2"}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].DocumentID).To(Equal("doc2"))
		})

		It("returns an empty result set for an empty corpus", func() {
			Expect(driver.DeleteDocument(ctx, "doc1")).To(Succeed())
			Expect(driver.DeleteDocument(ctx, "doc2")).To(Succeed())

			results, err := driver.Search(ctx, []float32{1, 0}, vector.Scope{}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("is idempotent for the same query and scope", func() {
			first, err := driver.Search(ctx, []float32{0.7, 0.7}, vector.Scope{}, 3)
			Expect(err).NotTo(HaveOccurred())
			second, err := driver.Search(ctx, []float32{0.7, 0.7}, vector.Scope{}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("excludes zero-vector candidates instead of faulting", func() {
			Expect(driver.Add(ctx, []vector.Record{
				rec("doc3", "c1", []float32{0, 0}, base),
			})).To(Succeed())

			results, err := driver.Search(ctx, []float32{1, 0}, vector.Scope{}, 10)
			Expect(err).NotTo(HaveOccurred())
			for _, r := range results {
				Expect(r.DocumentID).NotTo(Equal("doc3"))
			}
		})

		It("breaks score ties by newest CreatedAt first", func() {
			Expect(driver.DeleteDocument(ctx, "doc1")).To(Succeed())
			Expect(driver.DeleteDocument(ctx, "doc2")).To(Succeed())
			Expect(driver.Add(ctx, []vector.Record{
				rec("tie", "old", []float32{1, 0}, base),
				rec("tie", "new", []float32{2, 0}, base.Add(time.Hour)),
			})).To(Succeed())

			results, err := driver.Search(ctx, []float32{3, 0}, vector.Scope{}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ChunkID).To(Equal("new"))
			Expect(results[1].ChunkID).To(Equal("old"))
		})
	})

	Describe("DeleteDocument", func() {
		It("removes only the named document's records", func() {
			Expect(driver.Add(ctx, []vector.Record{
				rec("doc1", "c1", []float32{1, 0}, base),
				rec("doc2", "c1", []float32{0, 1}, base),
			})).To(Succeed())

			Expect(driver.DeleteDocument(ctx, "doc1")).To(Succeed())

			count, _ := driver.Count(ctx)
			Expect(count).To(Equal(1))
		})

		It("succeeds for a document with no records", func() {
			Expect(driver.DeleteDocument(ctx, "ghost")).To(Succeed())
			Expect(driver.DeleteDocument(ctx, "ghost")).To(Succeed())
		})
	})
})
