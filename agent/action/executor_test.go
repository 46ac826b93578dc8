package action

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ScriptExecutor", func() {
	var (
		dir  string
		exec *ScriptExecutor
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		var err error
		exec, err = NewScriptExecutor(filepath.Join(dir, "scripts"), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewScriptExecutor", func() {
		It("creates the scripts directory when absent", func() {
			Expect(filepath.Join(dir, "scripts")).To(BeADirectory())
		})
	})

	Describe("resolve", func() {
		It("resolves a script inside the directory", func() {
			path := filepath.Join(exec.root, "Set-Proxy.ps1")
			Expect(os.WriteFile(path, []byte("param()"), 0o644)).To(Succeed())

			resolved, err := exec.resolve("Set-Proxy.ps1")
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved).To(Equal(path))
		})

		It("rejects a traversal that escapes the directory", func() {
			outside := filepath.Join(dir, "evil.ps1")
			Expect(os.WriteFile(outside, []byte("param()"), 0o644)).To(Succeed())

			_, err := exec.resolve("../evil.ps1")
			Expect(err).To(MatchError(ContainSubstring("security violation")))
		})

		It("rejects a symlink that points outside the directory", func() {
			outside := filepath.Join(dir, "evil.ps1")
			Expect(os.WriteFile(outside, []byte("param()"), 0o644)).To(Succeed())
			Expect(os.Symlink(outside, filepath.Join(exec.root, "link.ps1"))).To(Succeed())

			_, err := exec.resolve("link.ps1")
			Expect(err).To(MatchError(ContainSubstring("security violation")))
		})

		It("reports an absent script", func() {
			_, err := exec.resolve("Missing.ps1")
			Expect(err).To(MatchError(ContainSubstring("script not found")))
		})
	})

	Describe("Execute", func() {
		It("fails the dispatch for an absent script", func() {
			ok, _, stderr := exec.Execute("Missing.ps1", nil)
			Expect(ok).To(BeFalse())
			Expect(stderr).To(ContainSubstring("script not found"))
		})

		It("refuses an escaping path", func() {
			ok, _, stderr := exec.Execute("../../etc/passwd", nil)
			Expect(ok).To(BeFalse())
			Expect(stderr).To(ContainSubstring("security violation"))
		})
	})
})

var _ = Describe("buildArgs", func() {
	It("formats booleans as PowerShell literals", func() {
		Expect(buildArgs(map[string]any{"Force": true})).To(Equal([]string{"-Force", "$true"}))
		Expect(buildArgs(map[string]any{"Force": false})).To(Equal([]string{"-Force", "$false"}))
	})

	It("leaves numbers unquoted", func() {
		Expect(buildArgs(map[string]any{"Port": 8080})).To(Equal([]string{"-Port", "8080"}))
		Expect(buildArgs(map[string]any{"Ratio": 2.5})).To(Equal([]string{"-Ratio", "2.5"}))
	})

	It("prints integral floats without decimals", func() {
		// JSON numbers decode to float64.
		Expect(buildArgs(map[string]any{"Port": float64(8080)})).To(Equal([]string{"-Port", "8080"}))
	})

	It("quotes strings and escapes embedded quotes", func() {
		Expect(buildArgs(map[string]any{"ProxyServer": "1.2.3.4:8080"})).
			To(Equal([]string{"-ProxyServer", `"1.2.3.4:8080"`}))
		Expect(buildArgs(map[string]any{"Msg": `say "hi"`})).
			To(Equal([]string{"-Msg", "\"say `\"hi`\"\""}))
	})

	It("skips nil values", func() {
		Expect(buildArgs(map[string]any{"Skip": nil})).To(BeEmpty())
	})

	It("orders parameters deterministically", func() {
		args := buildArgs(map[string]any{"B": "2", "A": "1"})
		Expect(args).To(Equal([]string{"-A", `"1"`, "-B", `"2"`}))
	})
})
