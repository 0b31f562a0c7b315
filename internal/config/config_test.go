package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("config", func() {
	var (
		tmpDir string
		rcPath string
		saved  map[string]*string
	)

	setenv := func(key, value string) {
		if _, ok := saved[key]; !ok {
			if old, ok := os.LookupEnv(key); ok {
				saved[key] = &old
			} else {
				saved[key] = nil
			}
		}
		Expect(os.Setenv(key, value)).To(Succeed())
	}

	unsetenv := func(key string) {
		setenv(key, "")
		Expect(os.Unsetenv(key)).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "ade-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		saved = make(map[string]*string)
		homedir.DisableCache = true
		setenv("HOME", tmpDir)
		rcPath = filepath.Join(tmpDir, ".config", "ade", "appctld.rc")
	})

	AfterEach(func() {
		for key, value := range saved {
			if value == nil {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, *value)
			}
		}
		homedir.DisableCache = false
		os.RemoveAll(tmpDir)
	})

	Describe("SearchRoots", func() {
		Context("when XDG variables are set", func() {
			BeforeEach(func() {
				setenv("XDG_DATA_HOME", "/data/home")
				setenv("XDG_DATA_DIRS", "/opt/share::/usr/share")
			})

			It("should put the data home first", func() {
				c, err := newConfig(rcPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.SearchRoots()).To(Equal([]string{
					"/data/home/applications",
					"/opt/share/applications",
					"/usr/share/applications",
				}))
			})
		})

		Context("when XDG variables are unset", func() {
			BeforeEach(func() {
				unsetenv("XDG_DATA_HOME")
				unsetenv("XDG_DATA_DIRS")
			})

			It("should use the standard locations", func() {
				c, err := newConfig(rcPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.SearchRoots()).To(Equal([]string{
					filepath.Join(tmpDir, ".local", "share", "applications"),
					"/usr/local/share/applications",
					"/usr/share/applications",
				}))
			})
		})

		Context("when the rc file lists extra roots", func() {
			BeforeEach(func() {
				setenv("XDG_DATA_HOME", "/data/home")
				setenv("XDG_DATA_DIRS", "/usr/share")
				Expect(os.MkdirAll(filepath.Dir(rcPath), 0750)).To(Succeed())
				rc := "# extra application dirs\n\n~/apps\n/srv/applications\n/usr/share/applications\n"
				Expect(os.WriteFile(rcPath, []byte(rc), 0600)).To(Succeed())
			})

			It("should append them after the standard roots", func() {
				c, err := newConfig(rcPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(c.ExtraRoots()).To(Equal([]string{
					filepath.Join(tmpDir, "apps"),
					"/srv/applications",
					"/usr/share/applications",
				}))
				Expect(c.SearchRoots()).To(Equal([]string{
					"/data/home/applications",
					"/usr/share/applications",
					filepath.Join(tmpDir, "apps"),
					"/srv/applications",
				}))
			})

			It("should pick up changes on reload", func() {
				c, err := newConfig(rcPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(os.WriteFile(rcPath, []byte("/other\n"), 0600)).To(Succeed())
				Expect(c.loadRC()).To(Succeed())
				Expect(c.ExtraRoots()).To(Equal([]string{"/other"}))
			})
		})

		Context("when the rc file does not exist", func() {
			It("should create it empty", func() {
				c, err := newConfig(rcPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(rcPath).To(BeAnExistingFile())
				Expect(c.ExtraRoots()).To(BeEmpty())
			})
		})
	})

	Describe("settings", func() {
		BeforeEach(func() {
			setenv("PATH", "/usr/bin::/bin")
			setenv("ADE_APPCTLD_SOCK", "~/run/appctld")
			setenv("ADE_DEFAULT_TERM", "foot")
			setenv("ADE_APPCTLD_LOG_LEVEL", "debug")
			unsetenv("ADE_APPCTLD_SHELL")
		})

		It("should read the environment", func() {
			c, err := newConfig(rcPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Path()).To(Equal([]string{"/usr/bin", "/bin"}))
			Expect(c.UnixSocket()).To(Equal(filepath.Join(tmpDir, "run", "appctld")))
			Expect(c.Terminal()).To(Equal("foot"))
			Expect(c.Shell()).To(Equal("/bin/sh"))
			Expect(c.LogLevel()).To(Equal(log.DebugLevel))
		})

		It("should fall back to info for unknown log levels", func() {
			setenv("ADE_APPCTLD_LOG_LEVEL", "loud")
			c, err := newConfig(rcPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.LogLevel()).To(Equal(log.InfoLevel))
		})

		It("should default the socket to a per-user path", func() {
			unsetenv("ADE_APPCTLD_SOCK")
			c, err := newConfig(rcPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.UnixSocket()).To(HavePrefix("/tmp/ade-"))
			Expect(c.UnixSocket()).To(HaveSuffix("/appctld"))
		})
	})
})
