package credential

import (
	"encoding/base64"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCredential(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Credential Suite")
}

var _ = Describe("Hash", func() {
	It("stores salt and key and verifies only the exact password", func() {
		stored, err := Hash("Sup3rSecret")
		Expect(err).NotTo(HaveOccurred())

		raw, err := base64.StdEncoding.DecodeString(stored)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(HaveLen(SaltSize + KeySize))

		Expect(Verify(stored, "Sup3rSecret")).To(BeTrue())
		Expect(Verify(stored, "sup3rsecret")).To(BeFalse())
		Expect(Verify(stored, "")).To(BeFalse())
	})

	It("uses a fresh salt for every hash", func() {
		a, err := Hash("same")
		Expect(err).NotTo(HaveOccurred())
		b, err := Hash("same")
		Expect(err).NotTo(HaveOccurred())

		Expect(a).NotTo(Equal(b))
		Expect(Verify(a, "same")).To(BeTrue())
		Expect(Verify(b, "same")).To(BeTrue())
	})
})

var _ = Describe("Verify", func() {
	DescribeTable("returns false for malformed records",
		func(stored string) {
			Expect(Verify(stored, "anything")).To(BeFalse())
		},
		Entry("empty", ""),
		Entry("not base64", "%%%not-base64%%%"),
		Entry("too short", base64.StdEncoding.EncodeToString([]byte("short"))),
		Entry("too long", base64.StdEncoding.EncodeToString(make([]byte, SaltSize+KeySize+1))),
	)
})

var _ = Describe("GenerateTemporaryPassword", func() {
	It("draws the requested length from the unambiguous alphabet", func() {
		pw, err := GenerateTemporaryPassword(DefaultTemporaryPasswordLength)
		Expect(err).NotTo(HaveOccurred())
		Expect(pw).To(HaveLen(DefaultTemporaryPasswordLength))

		for _, r := range pw {
			Expect(strings.ContainsRune(Alphabet, r)).To(BeTrue(), "unexpected rune %q", r)
		}
		for _, confusable := range "0O1lI" {
			Expect(strings.ContainsRune(Alphabet, confusable)).To(BeFalse())
		}
	})

	It("varies between calls", func() {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			pw, err := GenerateTemporaryPassword(16)
			Expect(err).NotTo(HaveOccurred())
			seen[pw] = true
		}
		Expect(len(seen)).To(BeNumerically(">", 45))
	})

	It("rejects non-positive lengths", func() {
		_, err := GenerateTemporaryPassword(0)
		Expect(err).To(MatchError(ErrInvalidLength))
	})
})
