package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/storage"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/storage/inmemory"
)

var _ = Describe("In-Memory Storage", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		ctx = context.Background()
	})

	It("round-trips a blob", func() {
		Expect(driver.Put(ctx, "conversations/abc.json", []byte(`{"messages":[]}`))).To(Succeed())

		data, err := driver.Get(ctx, "conversations/abc.json")
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte(`{"messages":[]}`)))
	})

	It("returns NotFoundError for an absent key", func() {
		_, err := driver.Get(ctx, "missing")
		Expect(err).To(MatchError(storage.NotFoundError{Key: "missing"}))
	})

	It("replaces a blob on re-put", func() {
		Expect(driver.Put(ctx, "k", []byte("old"))).To(Succeed())
		Expect(driver.Put(ctx, "k", []byte("new"))).To(Succeed())

		data, err := driver.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("new"))
	})

	It("rejects an empty key", func() {
		Expect(driver.Put(ctx, "", []byte("x"))).NotTo(Succeed())
	})

	It("copies data on write so callers cannot mutate stored blobs", func() {
		buf := []byte("original")
		Expect(driver.Put(ctx, "k", buf)).To(Succeed())
		buf[0] = 'X'

		data, _ := driver.Get(ctx, "k")
		Expect(string(data)).To(Equal("original"))
	})

	It("reports existence via Has", func() {
		ok, err := driver.Has(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(driver.Put(ctx, "k", []byte("v"))).To(Succeed())
		ok, _ = driver.Has(ctx, "k")
		Expect(ok).To(BeTrue())
	})

	It("deletes idempotently", func() {
		Expect(driver.Put(ctx, "k", []byte("v"))).To(Succeed())
		Expect(driver.Delete(ctx, "k")).To(Succeed())
		Expect(driver.Delete(ctx, "k")).To(Succeed())

		_, err := driver.Get(ctx, "k")
		Expect(err).To(HaveOccurred())
	})
})
