package ioutilx_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/ksislv/silverstripe-framework/pkg/ioutilx"
)

var _ = Describe("FileOrString", func() {
	Describe("#Bytes", func() {
		It("reads the file when the value names one", func() {
			dir, err := os.MkdirTemp("", "ioutilx")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(dir)

			path := filepath.Join(dir, "value.txt")
			Expect(os.WriteFile(path, []byte("from-file"), 0600)).To(Succeed())

			b, err := ioutilx.FileOrString(path).Bytes(ioutilx.OS, ioutilx.IOReader)

			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(Equal([]byte("from-file")))
		})

		It("returns the literal when no file exists at the path", func() {
			b, err := ioutilx.FileOrString("inline-value").Bytes(ioutilx.OS, ioutilx.IOReader)

			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(Equal([]byte("inline-value")))
		})

		It("unescapes literal newlines", func() {
			b, err := ioutilx.FileOrString(`line1\nline2`).Bytes(ioutilx.OS, ioutilx.IOReader)

			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(Equal([]byte("line1\nline2")))
		})

		It("rejects directories", func() {
			dir, err := os.MkdirTemp("", "ioutilx")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(dir)

			_, err = ioutilx.FileOrString(dir).Bytes(ioutilx.OS, ioutilx.IOReader)

			Expect(err).To(HaveOccurred())
		})
	})
})
