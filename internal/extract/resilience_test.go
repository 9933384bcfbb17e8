package extract

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sony/gobreaker/v2"
)

// countingExtractor is a mock implementation of Extractor
type countingExtractor struct {
	response    string
	extractErr  error
	calls       int
	closeCalled bool
}

func (c *countingExtractor) Extract(imageData []byte, contentType string) (string, error) {
	c.calls++
	if c.extractErr != nil {
		return "", c.extractErr
	}
	return c.response, nil
}

func (c *countingExtractor) Close() error {
	c.closeCalled = true
	return nil
}

var _ = Describe("Resilient", func() {
	var (
		inner     *countingExtractor
		resilient *Resilient
	)

	BeforeEach(func() {
		inner = &countingExtractor{response: `{"merchant": "Big Basket"}`}
		resilient = NewResilient(inner)
	})

	When("the provider succeeds", func() {
		It("passes the response through", func() {
			text, err := resilient.Extract([]byte("data"), "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`{"merchant": "Big Basket"}`))
			Expect(inner.calls).To(Equal(1))
		})
	})

	When("the provider fails once", func() {
		BeforeEach(func() {
			inner.extractErr = errors.New("provider down")
		})

		It("surfaces the error and keeps the circuit closed", func() {
			_, err := resilient.Extract([]byte("data"), "image/png")
			Expect(err).To(MatchError("provider down"))

			inner.extractErr = nil
			_, err = resilient.Extract([]byte("data"), "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(inner.calls).To(Equal(2))
		})
	})

	When("the provider fails three times in a row", func() {
		BeforeEach(func() {
			inner.extractErr = errors.New("provider down")
			for i := 0; i < 3; i++ {
				_, err := resilient.Extract([]byte("data"), "image/png")
				Expect(err).To(HaveOccurred())
			}
		})

		It("opens the circuit", func() {
			_, err := resilient.Extract([]byte("data"), "image/png")
			Expect(errors.Is(err, gobreaker.ErrOpenState)).To(BeTrue())
		})

		It("stops calling the provider", func() {
			_, _ = resilient.Extract([]byte("data"), "image/png")
			_, _ = resilient.Extract([]byte("data"), "image/png")
			Expect(inner.calls).To(Equal(3))
		})
	})

	When("failures are interleaved with successes", func() {
		It("never opens the circuit", func() {
			for i := 0; i < 3; i++ {
				inner.extractErr = errors.New("provider down")
				_, _ = resilient.Extract([]byte("data"), "image/png")
				inner.extractErr = nil
				_, err := resilient.Extract([]byte("data"), "image/png")
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(inner.calls).To(Equal(6))
		})
	})

	Describe("Close", func() {
		It("closes the wrapped extractor", func() {
			Expect(resilient.Close()).To(Succeed())
			Expect(inner.closeCalled).To(BeTrue())
		})
	})
})
