package session

import (
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Registry Suite")
}

var _ = Describe("InMemoryRegistry", func() {
	var r *InMemoryRegistry

	BeforeEach(func() {
		r = NewInMemoryRegistry()
	})

	It("resolves a created token to its username", func() {
		token, err := r.Create("anna")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).NotTo(BeEmpty())

		username, ok := r.Lookup(token)
		Expect(ok).To(BeTrue())
		Expect(username).To(Equal("anna"))
	})

	It("does not resolve unknown or empty tokens", func() {
		_, ok := r.Lookup("nope")
		Expect(ok).To(BeFalse())
		_, ok = r.Lookup("")
		Expect(ok).To(BeFalse())
	})

	It("issues a distinct token per login and keeps both valid", func() {
		first, err := r.Create("anna")
		Expect(err).NotTo(HaveOccurred())
		second, err := r.Create("anna")
		Expect(err).NotTo(HaveOccurred())

		Expect(first).NotTo(Equal(second))
		for _, tok := range []string{first, second} {
			username, ok := r.Lookup(tok)
			Expect(ok).To(BeTrue())
			Expect(username).To(Equal("anna"))
		}
	})

	It("keeps registries isolated from each other", func() {
		token, err := r.Create("anna")
		Expect(err).NotTo(HaveOccurred())

		_, ok := NewInMemoryRegistry().Lookup(token)
		Expect(ok).To(BeFalse())
	})

	It("is safe under concurrent create and lookup", func() {
		const workers = 50

		var wg sync.WaitGroup
		tokens := make(chan string, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := r.Create("user")
				if err == nil {
					tokens <- tok
					r.Lookup(tok)
				}
			}()
		}
		wg.Wait()
		close(tokens)

		Expect(r.Len()).To(Equal(workers))
		for tok := range tokens {
			_, ok := r.Lookup(tok)
			Expect(ok).To(BeTrue())
		}
	})
})
