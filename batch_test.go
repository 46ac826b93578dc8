package bancheck

import (
	"fmt"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("processBatch", func() {
	var (
		engine *Engine
		target *httptest.Server
	)

	BeforeEach(func() {
		engine = NewEngine(NewStore(), nil)
		target = mockProfileServer(publicHTML)
	})

	AfterEach(func() {
		target.Close()
	})

	It("returns one result per URL", func() {
		urls := make([]string, 7)
		for i := range urls {
			urls[i] = fmt.Sprintf("%s/u%d", target.URL, i)
		}

		var ticks atomic.Int32
		results := engine.processBatch(1, urls, "", Params{MaxWorkersPerBatch: 3}, func() { ticks.Add(1) })

		Expect(results).To(HaveLen(7))
		Expect(ticks.Load()).To(Equal(int32(7)))

		seen := map[string]bool{}
		for _, r := range results {
			Expect(r.BatchID).To(Equal(1))
			Expect(r.ProxyUsed).To(Equal("None"))
			Expect(r.RawStatus).To(Equal(rawPublic))
			seen[r.URL] = true
		}
		Expect(seen).To(HaveLen(7))
	})

	It("floors the worker count at one", func() {
		var ticks atomic.Int32
		results := engine.processBatch(2, []string{target.URL + "/solo"}, "", Params{MaxWorkersPerBatch: 0}, func() { ticks.Add(1) })

		Expect(results).To(HaveLen(1))
		Expect(ticks.Load()).To(Equal(int32(1)))
	})

	It("labels results with the batch proxy", func() {
		results := engine.processBatch(3, []string{target.URL + "/u"}, "bogus-proxy", Params{MaxWorkersPerBatch: 2}, func() {})
		Expect(results[0].ProxyUsed).To(Equal("bogus-proxy"))
	})
})

var _ = Describe("secondsToDuration", func() {
	It("converts fractional seconds", func() {
		Expect(secondsToDuration(0.5).Milliseconds()).To(Equal(int64(500)))
		Expect(secondsToDuration(0).Milliseconds()).To(Equal(int64(0)))
	})
})
