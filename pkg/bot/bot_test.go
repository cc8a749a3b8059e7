package bot_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/bot"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/conversation"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/llm"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/rag"
	testutils "github.com/dfernandezmOnesec/vea-connect-go/pkg/utils/test"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/vector"
)

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		fast      *testutils.MockCache
		store     *testutils.MockStore
		embedder  *testutils.MockEmbedder
		vectors   *testutils.MockVectorDriver
		generator *testutils.MockGenerator
		sender    *testutils.MockMessenger
		publisher *testutils.MockPublisher
		convs     *conversation.Manager
		clock     time.Time
	)

	msg := bot.InboundMessage{
		ConversationID: "whatsapp:+5215550001111",
		From:           "+5215550001111",
		Text:           "what are the opening hours?",
		Channel:        "whatsapp",
	}

	newService := func(config bot.Config) *bot.Service {
		retrieval := rag.NewEngine(embedder, vectors, fast, rag.Config{}, zap.NewNop())
		return bot.NewServiceWithClock(convs, retrieval, generator, sender, publisher,
			config, zap.NewNop(), func() time.Time { return clock })
	}

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		fast = testutils.NewMockCache()
		store = testutils.NewMockStore()
		embedder = testutils.NewMockEmbedder()
		vectors = testutils.NewMockVectorDriver()
		generator = testutils.NewMockGenerator("we open at nine")
		sender = testutils.NewMockMessenger()
		publisher = testutils.NewMockPublisher()
		convs = conversation.NewManagerWithClock(fast, store, conversation.Config{},
			zap.NewNop(), func() time.Time { return clock })
	})

	It("delivers the generated reply to the sender", func() {
		s := newService(bot.Config{})

		Expect(s.HandleMessage(ctx, msg)).To(Succeed())

		Expect(sender.Sent).To(HaveLen(1))
		Expect(sender.Sent[0].To).To(Equal("+5215550001111"))
		Expect(sender.Sent[0].Text).To(Equal("we open at nine"))
	})

	It("injects retrieved knowledge into the system prompt", func() {
		vectors.SearchResults = []vector.Result{
			{Record: vector.Record{SourceText: "open 9am to 6pm"}, Score: 0.9},
		}
		s := newService(bot.Config{})

		Expect(s.HandleMessage(ctx, msg)).To(Succeed())

		Expect(generator.Prompts).To(HaveLen(1))
		prompt := generator.Prompts[0]
		Expect(prompt[0].Role).To(Equal(llm.RoleSystem))
		Expect(prompt[0].Content).To(ContainSubstring("open 9am to 6pm"))
		Expect(prompt[len(prompt)-1].Role).To(Equal(llm.RoleUser))
		Expect(prompt[len(prompt)-1].Content).To(Equal(msg.Text))
	})

	It("includes prior history in the prompt", func() {
		Expect(convs.AppendMessage(ctx, msg.ConversationID, conversation.Message{
			Role: llm.RoleUser, Text: "hello", Timestamp: clock,
		})).To(Succeed())
		Expect(convs.AppendMessage(ctx, msg.ConversationID, conversation.Message{
			Role: llm.RoleAssistant, Text: "hi there", Timestamp: clock,
		})).To(Succeed())

		s := newService(bot.Config{})
		Expect(s.HandleMessage(ctx, msg)).To(Succeed())

		prompt := generator.Prompts[0]
		Expect(prompt).To(HaveLen(4))
		Expect(prompt[1].Content).To(Equal("hello"))
		Expect(prompt[2].Content).To(Equal("hi there"))
	})

	It("persists both sides of the turn", func() {
		s := newService(bot.Config{})

		Expect(s.HandleMessage(ctx, msg)).To(Succeed())

		got := convs.GetContext(ctx, msg.ConversationID)
		Expect(got.Messages).To(HaveLen(2))
		Expect(got.Messages[0].Role).To(Equal(llm.RoleUser))
		Expect(got.Messages[0].Text).To(Equal(msg.Text))
		Expect(got.Messages[1].Role).To(Equal(llm.RoleAssistant))
		Expect(got.Messages[1].Text).To(Equal("we open at nine"))
	})

	It("degrades to a history-only prompt when retrieval fails", func() {
		embedder.FailOn = msg.Text
		s := newService(bot.Config{})

		Expect(s.HandleMessage(ctx, msg)).To(Succeed())

		Expect(sender.Sent).To(HaveLen(1))
		Expect(generator.Prompts[0][0].Content).NotTo(ContainSubstring("Relevant knowledge"))

		Expect(publisher.MessageHandled).To(HaveLen(1))
		Expect(publisher.MessageHandled[0].Degraded).To(BeTrue())
	})

	It("aborts the turn when generation fails", func() {
		generator.FailGenerate = true
		s := newService(bot.Config{})

		Expect(s.HandleMessage(ctx, msg)).NotTo(Succeed())
		Expect(sender.Sent).To(BeEmpty())
		Expect(convs.GetContext(ctx, msg.ConversationID).Messages).To(BeEmpty())
	})

	It("aborts the turn when delivery fails", func() {
		sender.FailSend = true
		s := newService(bot.Config{})

		Expect(s.HandleMessage(ctx, msg)).NotTo(Succeed())
		Expect(convs.GetContext(ctx, msg.ConversationID).Messages).To(BeEmpty())
	})

	It("publishes a handled event describing the turn", func() {
		vectors.SearchResults = []vector.Result{
			{Record: vector.Record{SourceText: "open 9am to 6pm"}, Score: 0.9},
		}
		s := newService(bot.Config{})

		Expect(s.HandleMessage(ctx, msg)).To(Succeed())

		Expect(publisher.MessageHandled).To(HaveLen(1))
		event := publisher.MessageHandled[0]
		Expect(event.ConversationID).To(Equal(msg.ConversationID))
		Expect(event.Channel).To(Equal("whatsapp"))
		Expect(event.RetrievedChunks).To(Equal(1))
		Expect(event.Degraded).To(BeFalse())
	})

	It("uses a custom system prompt when configured", func() {
		s := newService(bot.Config{SystemPrompt: "eres un asistente parroquial"})

		Expect(s.HandleMessage(ctx, msg)).To(Succeed())
		Expect(generator.Prompts[0][0].Content).To(HavePrefix("eres un asistente parroquial"))
	})
})
