package rag_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cache"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/rag"
	testutils "github.com/dfernandezmOnesec/vea-connect-go/pkg/utils/test"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
	vectormemory "github.com/dfernandezmOnesec/vea-connect-go/pkg/vector/memory"
)

var _ = Describe("Engine", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		vectors  *vectormemory.Driver
		fast     *testutils.MockCache
	)

	newEngine := func(config rag.Config) *rag.Engine {
		return rag.NewEngine(embedder, vectors, fast, config, zap.NewNop())
	}

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		vectors = vectormemory.NewDriver(vectormemory.Config{}, zap.NewNop())
		fast = testutils.NewMockCache()
	})

	Describe("TextHash", func() {
		It("is stable across whitespace variants", func() {
			Expect(rag.TextHash("  hola   mundo ")).To(Equal(rag.TextHash("hola mundo")))
			Expect(rag.TextHash("hola\nmundo")).To(Equal(rag.TextHash("hola mundo")))
		})

		It("differs for different texts", func() {
			Expect(rag.TextHash("hola")).NotTo(Equal(rag.TextHash("adios")))
		})
	})

	Describe("Embed", func() {
		It("computes on a cold cache and serves the cache afterwards", func() {
			e := newEngine(rag.Config{})
			embedder.Embeddings["hola"] = []float32{1, 0, 0}

			first, err := e.Embed(ctx, "hola")
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal([]float32{1, 0, 0}))
			Expect(embedder.Calls).To(HaveLen(1))

			second, err := e.Embed(ctx, "hola")
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
			Expect(embedder.Calls).To(HaveLen(1))
		})

		It("caches under the embedding key with the configured TTL", func() {
			e := newEngine(rag.Config{EmbeddingTTL: 42 * time.Minute})

			_, err := e.Embed(ctx, "hola")
			Expect(err).NotTo(HaveOccurred())

			key := cache.EmbeddingKey(rag.TextHash("hola"))
			Expect(fast.Entries).To(HaveKey(key))
			Expect(fast.SetTTLs[key]).To(Equal(42 * time.Minute))
		})

		It("shares one cache entry across whitespace variants", func() {
			e := newEngine(rag.Config{})

			_, err := e.Embed(ctx, "hola mundo")
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Embed(ctx, "  hola   mundo ")
			Expect(err).NotTo(HaveOccurred())

			Expect(embedder.Calls).To(HaveLen(1))
		})

		It("computes fresh when the cache is down", func() {
			fast.FailGet = true
			fast.FailSet = true
			e := newEngine(rag.Config{})

			got, err := e.Embed(ctx, "hola")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(embedder.Default))
		})

		It("surfaces provider failures", func() {
			embedder.FailOn = "hola"
			e := newEngine(rag.Config{})

			_, err := e.Embed(ctx, "hola")
			Expect(err).To(HaveOccurred())
		})

		It("rejects provider output of the wrong dimensionality", func() {
			e := newEngine(rag.Config{Dimensions: 8})

			_, err := e.Embed(ctx, "hola")
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})
	})

	Describe("Retrieve", func() {
		BeforeEach(func() {
			now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			Expect(vectors.Add(ctx, []vector.Record{
				{DocumentID: "doc-a", ChunkID: "0", Embedding: []float32{1, 0, 0}, SourceText: "alpha", CreatedAt: now},
				{DocumentID: "doc-a", ChunkID: "1", Embedding: []float32{0, 1, 0}, SourceText: "beta", CreatedAt: now},
				{DocumentID: "doc-b", ChunkID: "0", Embedding: []float32{0.9, 0.1, 0}, SourceText: "gamma", CreatedAt: now},
			})).To(Succeed())
		})

		It("returns chunks ranked by similarity to the query", func() {
			embedder.Embeddings["query"] = []float32{1, 0, 0}
			e := newEngine(rag.Config{})

			got, err := e.Retrieve(ctx, "query", vector.Scope{}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].SourceText).To(Equal("alpha"))
			Expect(got[1].SourceText).To(Equal("gamma"))
		})

		It("applies the configured default topK when none is given", func() {
			embedder.Embeddings["query"] = []float32{1, 0, 0}
			e := newEngine(rag.Config{TopK: 1})

			got, err := e.Retrieve(ctx, "query", vector.Scope{}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
		})

		It("honors a document scope", func() {
			embedder.Embeddings["query"] = []float32{1, 0, 0}
			e := newEngine(rag.Config{})

			got, err := e.Retrieve(ctx, "query", vector.Scope{DocumentID: "doc-b"}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].DocumentID).To(Equal("doc-b"))
		})

		It("returns an empty slice for an empty corpus", func() {
			empty := vectormemory.NewDriver(vectormemory.Config{}, zap.NewNop())
			e := rag.NewEngine(embedder, empty, fast, rag.Config{}, zap.NewNop())

			got, err := e.Retrieve(ctx, "query", vector.Scope{}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})
	})
})
