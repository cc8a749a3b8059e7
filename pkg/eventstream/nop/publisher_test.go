package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("creates a non-nil publisher", func() {
		p := nop.NewPublisher()
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilEvent for nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishDocumentDeleted(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(p.PublishMessageHandled(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishDocumentDeleted(context.Background(), &eventstream.DocumentDeletedEvent{})).To(Succeed())
		Expect(p.PublishMessageHandled(context.Background(), &eventstream.MessageHandledEvent{})).To(Succeed())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
