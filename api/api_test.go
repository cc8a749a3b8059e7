package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/bot"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/conversation"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/deletion"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/ingest"
	vealogger "github.com/dfernandezmOnesec/vea-connect-go/pkg/logger"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/rag"
	testutils "github.com/dfernandezmOnesec/vea-connect-go/pkg/utils/test"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

// testServer wires a Server over mocks so handlers can be exercised through
// fiber's test transport.
type testServer struct {
	server    *Server
	fast      *testutils.MockCache
	store     *testutils.MockStore
	embedder  *testutils.MockEmbedder
	vectors   *testutils.MockVectorDriver
	generator *testutils.MockGenerator
	sender    *testutils.MockMessenger
	publisher *testutils.MockPublisher
	pool      *ingest.Pool
}

func newTestServer() *testServer {
	logger := vealogger.Nop()
	ts := &testServer{
		fast:      testutils.NewMockCache(),
		store:     testutils.NewMockStore(),
		embedder:  testutils.NewMockEmbedder(),
		vectors:   testutils.NewMockVectorDriver(),
		generator: testutils.NewMockGenerator("ok"),
		sender:    testutils.NewMockMessenger(),
		publisher: testutils.NewMockPublisher(),
	}

	conversations := conversation.NewManager(ts.fast, ts.store, conversation.Config{}, logger)
	retrieval := rag.NewEngine(ts.embedder, ts.vectors, ts.fast, rag.Config{}, logger)
	deleter := deletion.NewOrchestrator(ts.store, ts.fast, ts.vectors, ts.publisher, deletion.Config{}, logger)
	botSvc := bot.NewService(conversations, retrieval, ts.generator, ts.sender, ts.publisher, bot.Config{}, logger)

	pool, err := ingest.NewPool(&ingest.Config{
		Cache:      ts.fast,
		Embedder:   ts.embedder,
		Vectors:    ts.vectors,
		NumWorkers: 1,
		Logger:     logger,
	})
	Expect(err).NotTo(HaveOccurred())
	ts.pool = pool

	ts.server = NewServer(Config{ListenAddr: ":0"}, Deps{
		Conversations: conversations,
		Retrieval:     retrieval,
		Deleter:       deleter,
		Store:         ts.store,
		Ingest:        pool,
		Bot:           botSvc,
	}, logger)

	return ts
}

func doJSON(app *fiber.App, method, target string, payload any) (*http.Response, []byte) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, target, body)
	Expect(err).NotTo(HaveOccurred())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	respBody, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, respBody
}

var _ = Describe("Server", func() {
	var ts *testServer

	BeforeEach(func() {
		ts = newTestServer()
	})

	AfterEach(func() {
		ts.pool.Close()
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, body := doJSON(ts.server.app, http.MethodGet, "/ping", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(ContainSubstring("pong"))
		})
	})

	Describe("GET /v1/search", func() {
		It("returns 400 when query is missing", func() {
			resp, _ := doJSON(ts.server.app, http.MethodGet, "/v1/search", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 400 for a non-positive top_k", func() {
			resp, _ := doJSON(ts.server.app, http.MethodGet, "/v1/search?query=hi&top_k=0", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns ranked results", func() {
			ts.vectors.SearchResults = []vector.Result{
				{Record: vector.Record{DocumentID: "doc-1", ChunkID: "0", SourceText: "alpha"}, Score: 0.9},
			}

			resp, body := doJSON(ts.server.app, http.MethodGet, "/v1/search?query=hi", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var got SearchResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Query).To(Equal("hi"))
			Expect(got.Count).To(Equal(1))
			Expect(got.Results[0].DocumentID).To(Equal("doc-1"))
			Expect(got.Results[0].Text).To(Equal("alpha"))
		})

		It("returns 500 when embedding fails", func() {
			ts.embedder.FailOn = "hi"
			resp, _ := doJSON(ts.server.app, http.MethodGet, "/v1/search?query=hi", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})
	})

	Describe("POST /v1/documents", func() {
		It("stores the blob and queues ingestion", func() {
			resp, body := doJSON(ts.server.app, http.MethodPost, "/v1/documents",
				UploadRequest{DocumentID: "doc-1", Text: "some document text"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusAccepted))

			var got UploadResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.DocumentID).To(Equal("doc-1"))
			Expect(got.BlobKey).To(Equal("documents/doc-1.txt"))
			Expect(got.Queued).To(BeTrue())

			Expect(ts.store.Blobs).To(HaveKey("documents/doc-1.txt"))
		})

		It("generates a document id when none is given", func() {
			resp, body := doJSON(ts.server.app, http.MethodPost, "/v1/documents",
				UploadRequest{Text: "some document text"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusAccepted))

			var got UploadResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.DocumentID).NotTo(BeEmpty())
		})

		It("rejects an empty text", func() {
			resp, _ := doJSON(ts.server.app, http.MethodPost, "/v1/documents", UploadRequest{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("DELETE /v1/documents", func() {
		It("returns 400 when no identifier is given", func() {
			resp, _ := doJSON(ts.server.app, http.MethodDelete, "/v1/documents", deletion.Request{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 200 with deletion details on success", func() {
			resp, body := doJSON(ts.server.app, http.MethodDelete, "/v1/documents",
				deletion.Request{DocumentID: "doc-1", BlobKey: "documents/doc-1.txt"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var got DeleteResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Success).To(BeTrue())
			Expect(got.DeletionDetails.BlobDeleted).To(BeTrue())
			Expect(got.Timestamp).NotTo(BeEmpty())
		})

		It("returns 500 with per-backend errors on partial failure", func() {
			ts.vectors.FailDelete = true

			resp, body := doJSON(ts.server.app, http.MethodDelete, "/v1/documents",
				deletion.Request{DocumentID: "doc-1"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))

			var got DeleteResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Success).To(BeFalse())
			Expect(got.DeletionDetails.CacheDeleted).To(BeTrue())
			Expect(got.DeletionDetails.Errors).To(HaveLen(1))
			Expect(got.DeletionDetails.Errors[0].Backend).To(Equal(deletion.BackendEmbeddings))
		})
	})

	Describe("GET /v1/conversations/:id/context", func() {
		It("returns an empty context for an unknown conversation", func() {
			resp, body := doJSON(ts.server.app, http.MethodGet, "/v1/conversations/nobody/context", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var got ContextResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Source).To(Equal("empty"))
			Expect(got.Messages).To(BeEmpty())
		})

		It("returns persisted history with its source tier", func() {
			ctx := context.Background()
			mgr := conversation.NewManager(ts.fast, ts.store, conversation.Config{}, zap.NewNop())
			Expect(mgr.AppendMessage(ctx, "conv-1", conversation.Message{
				Role: "user", Text: "hola", Timestamp: time.Now(),
			})).To(Succeed())

			resp, body := doJSON(ts.server.app, http.MethodGet, "/v1/conversations/conv-1/context", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var got ContextResponse
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			Expect(got.Source).To(Equal("cache"))
			Expect(got.Messages).To(HaveLen(1))
			Expect(got.Messages[0].Text).To(Equal("hola"))
		})
	})
})
