package ingest_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/ingest"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w"
	}
	return strings.Join(parts, " ")
}

var _ = Describe("Chunk", func() {
	It("returns nothing for empty or whitespace-only text", func() {
		Expect(ingest.Chunk("", 10, 2)).To(BeNil())
		Expect(ingest.Chunk("   \n\t ", 10, 2)).To(BeNil())
	})

	It("returns one chunk when the text fits", func() {
		chunks := ingest.Chunk("hola mundo", 10, 2)
		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0]).To(Equal("hola mundo"))
	})

	It("splits long text into overlapping windows", func() {
		chunks := ingest.Chunk(words(25), 10, 2)
		// step of 8 over 25 words: starts at 0, 8, 16, 24
		Expect(chunks).To(HaveLen(4))
		Expect(strings.Fields(chunks[0])).To(HaveLen(10))
		Expect(strings.Fields(chunks[3])).To(HaveLen(1))
	})

	It("shares overlap words between consecutive chunks", func() {
		text := "a b c d e f g h i j"
		chunks := ingest.Chunk(text, 4, 2)
		Expect(chunks[0]).To(Equal("a b c d"))
		Expect(chunks[1]).To(Equal("c d e f"))
	})

	It("collapses whitespace runs", func() {
		chunks := ingest.Chunk("hola \n\n  mundo", 10, 0)
		Expect(chunks[0]).To(Equal("hola mundo"))
	})
})
