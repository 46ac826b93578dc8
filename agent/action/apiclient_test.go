package action

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("APIClient", func() {
	Describe("GetData", func() {
		It("expands placeholders and authenticates with the query parameter", func() {
			var gotPath, gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.RequestURI()
				gotAuth = r.Header.Get("Authorization")
				w.Write([]byte(`{"proxy_server": "1.2.3.4:8080"}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, "k&y", "vm-01", nil)
			data, err := client.GetData(
				"/account-config?vm_id={VMIdentifier}&account_id={account_id}",
				map[string]string{"account_id": "alice"})

			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(HaveKeyWithValue("proxy_server", "1.2.3.4:8080"))
			Expect(gotPath).To(Equal("/account-config?vm_id=vm-01&account_id=alice&api_key=k%26y"))
			Expect(gotAuth).To(BeEmpty())
		})

		It("retries once with the Authorization header on rejection", func() {
			var attempts atomic.Int32
			var firstAuth, secondAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) == 1 {
					firstAuth = r.Header.Get("Authorization")
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				secondAuth = r.Header.Get("Authorization")
				w.Write([]byte(`{"ok": true}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, "secret", "vm-01", nil)
			data, err := client.GetData("/config", nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(HaveKeyWithValue("ok", true))
			Expect(attempts.Load()).To(Equal(int32(2)))
			Expect(firstAuth).To(BeEmpty())
			Expect(secondAuth).To(Equal("secret"))
		})

		It("fails when both attempts are rejected", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, "secret", "vm-01", nil)
			_, err := client.GetData("/config", nil)
			Expect(err).To(MatchError(ContainSubstring("403")))
		})

		It("leaves unknown placeholders literal", func() {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.RequestURI()
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, "k", "vm-01", nil)
			_, err := client.GetData("/x?a={missing}", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(gotPath).To(ContainSubstring("a={missing}"))
		})

		It("rejects a non-object response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`[1, 2]`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, "k", "vm-01", nil)
			_, err := client.GetData("/x", nil)
			Expect(err).To(MatchError(ContainSubstring("decoding")))
		})
	})

	Describe("TestAPIKey", func() {
		probe := func(status int) bool {
			var gotPath, gotAccount string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAccount = r.URL.Query().Get("account_id")
				w.WriteHeader(status)
			}))
			defer server.Close()

			valid := NewAPIClient(server.URL, "k", "vm-01", nil).TestAPIKey()
			Expect(gotPath).To(Equal("/windows-vm-agent/account-config"))
			Expect(gotAccount).To(Equal("test"))
			return valid
		}

		It("treats 200 as valid", func() {
			Expect(probe(http.StatusOK)).To(BeTrue())
		})

		It("treats 404 as valid", func() {
			Expect(probe(http.StatusNotFound)).To(BeTrue())
		})

		It("treats 401 as invalid", func() {
			Expect(probe(http.StatusUnauthorized)).To(BeFalse())
		})

		It("treats anything else as invalid", func() {
			Expect(probe(http.StatusBadGateway)).To(BeFalse())
		})
	})
})

var _ = Describe("expandTemplate", func() {
	It("URL-quotes substituted values", func() {
		out := expandTemplate("/a?x={v}", map[string]string{"v": "a b&c"})
		Expect(out).To(Equal("/a?x=a+b%26c"))
	})
})
