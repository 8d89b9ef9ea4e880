package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("parseLevel", func() {
	DescribeTable("maps names case-insensitively",
		func(in string, want slog.Level) {
			Expect(parseLevel(in)).To(Equal(want))
		},
		Entry("debug", "debug", slog.LevelDebug),
		Entry("upper-case info", "INFO", slog.LevelInfo),
		Entry("warn", "warn", slog.LevelWarn),
		Entry("error", "error", slog.LevelError),
		Entry("unknown falls back to info", "unknown", slog.LevelInfo),
	)
})

var _ = Describe("context loggers", func() {
	It("falls back to the default logger", func() {
		Expect(From(context.Background())).NotTo(BeNil())
	})

	It("stores a child logger in the context", func() {
		ctx := With(context.Background(), "trace_id", "abc")
		l := From(ctx)
		Expect(l).NotTo(BeNil())
		Expect(l).NotTo(BeIdenticalTo(LoggerWrapper()))
	})

	It("uses the given fallback only when the context has no logger", func() {
		fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
		Expect(FromOr(context.Background(), fallback)).To(BeIdenticalTo(fallback))

		ctx := With(context.Background(), "trace_id", "abc")
		Expect(FromOr(ctx, fallback)).NotTo(BeIdenticalTo(fallback))
	})
})
