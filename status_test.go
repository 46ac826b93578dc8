package bancheck

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = DescribeTable("interpretStatus",
	func(raw, wantSummary string) {
		summary, _ := interpretStatus(raw)
		Expect(summary).To(Equal(wantSummary))
	},
	Entry("banned", "BANNED: 1 VAC ban on record", SummaryBanned),
	Entry("private", rawPrivate, SummaryPrivate),
	Entry("public", rawPublic, SummaryPublic),
	Entry("unexpected structure", rawUnexpected, SummaryUnexpected),
	Entry("timeout", rawTimeout, SummaryError),
	Entry("connection", rawConnection, SummaryError),
	Entry("proxy error", rawProxyPrefix+"dial tcp: refused", SummaryProxyError),
	Entry("http 404", "ERROR_HTTP_404", SummaryNotFound),
	Entry("http 500", "ERROR_HTTP_500", SummaryError),
	Entry("retries exhausted on timeout", rawRetryPrefix+rawTimeout, SummaryError),
	Entry("retries exhausted on proxy error", rawRetryPrefix+rawProxyPrefix+"refused", SummaryProxyError),
	Entry("unexpected exception", rawUnexpectedPrefix+"boom", SummaryError),
	Entry("inner worker crash", rawInnerPrefix+"boom", SummaryError),
	Entry("unknown raw status", "SOMETHING_ELSE", SummaryError),
)

var _ = Describe("interpretStatus details", func() {
	It("extracts the ban text", func() {
		_, details := interpretStatus("BANNED: 2 game bans on record")
		Expect(details).To(Equal("2 game bans on record"))
	})

	It("keeps the raw status for errors", func() {
		_, details := interpretStatus("ERROR_HTTP_502")
		Expect(details).To(Equal("ERROR_HTTP_502"))
	})
})
