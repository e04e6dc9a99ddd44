// Package bundle installs the agent as a minimal macOS application bundle.
//
// Accessibility permission is granted per application, and System Settings
// only lists bundled applications. A bare binary therefore installs itself
// under ~/Applications and relaunches from there.
package bundle

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"inplace/internal/security"
)

const (
	// Name is the bundle and executable name.
	Name = "InplaceAI"

	// Identifier is the CFBundleIdentifier.
	Identifier = "com.inplaceai.desktop"

	// IconName is the icon resource name without extension.
	IconName = "AppIcon"

	defaultVersion = "1.0"
)

// ErrNotBundled is returned by Root for a binary outside any bundle.
var ErrNotBundled = errors.New("bundle: executable is not inside an application bundle")

const infoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleDevelopmentRegion</key>
	<string>en</string>
	<key>CFBundleExecutable</key>
	<string>{{xml .Name}}</string>
	<key>CFBundleIdentifier</key>
	<string>{{xml .Identifier}}</string>
	<key>CFBundleInfoDictionaryVersion</key>
	<string>6.0</string>
	<key>CFBundleName</key>
	<string>{{xml .Name}}</string>
	<key>CFBundlePackageType</key>
	<string>APPL</string>
	<key>CFBundleShortVersionString</key>
	<string>{{xml .Version}}</string>
	<key>CFBundleVersion</key>
	<string>{{xml .Version}}</string>
	<key>CFBundleIconFile</key>
	<string>{{xml .Icon}}</string>
	<key>CFBundleIconFiles</key>
	<array>
		<string>{{xml .Icon}}</string>
	</array>
	<key>LSUIElement</key>
	<true/>
	<key>NSPrincipalClass</key>
	<string>NSApplication</string>
</dict>
</plist>
`

var plistTemplate = template.Must(template.New("Info.plist").Funcs(template.FuncMap{
	"xml": func(s string) (string, error) {
		var buf bytes.Buffer
		if err := xml.EscapeText(&buf, []byte(s)); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
}).Parse(infoPlist))

type plistData struct {
	Name       string
	Identifier string
	Version    string
	Icon       string
}

// Installer writes the bundle.
type Installer struct {
	// Dir is the parent directory, ~/Applications when empty.
	Dir string

	// Version is written to CFBundleShortVersionString.
	Version string

	// Icon is an optional .icns file copied into Resources.
	Icon string
}

// Path returns the bundle directory the installer writes.
func (in *Installer) Path() (string, error) {
	dir := in.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, "Applications")
	}
	return filepath.Join(dir, Name+".app"), nil
}

// Executable returns the path of the installed binary inside app.
func Executable(app string) string {
	return filepath.Join(app, "Contents", "MacOS", Name)
}

// Install copies exe into the bundle and writes Info.plist. An existing
// bundle is overwritten in place. It returns the bundle path.
func (in *Installer) Install(exe string) (string, error) {
	app, err := in.Path()
	if err != nil {
		return "", err
	}
	contents := filepath.Join(app, "Contents")
	for _, dir := range []string{filepath.Join(contents, "MacOS"), filepath.Join(contents, "Resources")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := security.CopyFile(exe, Executable(app), security.PermExecutable); err != nil {
		return "", fmt.Errorf("copy executable: %w", err)
	}

	plist, err := in.plist()
	if err != nil {
		return "", err
	}
	if err := security.WriteSecureFile(filepath.Join(contents, "Info.plist"), plist, security.PermPublicFile); err != nil {
		return "", fmt.Errorf("write Info.plist: %w", err)
	}

	if in.Icon != "" {
		dst := filepath.Join(contents, "Resources", IconName+".icns")
		if err := security.CopyFile(in.Icon, dst, security.PermPublicFile); err != nil {
			return "", fmt.Errorf("copy icon: %w", err)
		}
	}
	return app, nil
}

func (in *Installer) plist() ([]byte, error) {
	version := strings.TrimSpace(in.Version)
	if version == "" || version == "dev" {
		version = defaultVersion
	}
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, plistData{
		Name:       Name,
		Identifier: Identifier,
		Version:    strings.TrimPrefix(version, "v"),
		Icon:       IconName,
	})
	if err != nil {
		return nil, fmt.Errorf("render Info.plist: %w", err)
	}
	return buf.Bytes(), nil
}

// Root returns the .app directory containing exe.
func Root(exe string) (string, error) {
	clean := filepath.Clean(exe)
	marker := string(filepath.Separator) + filepath.Join("Contents", "MacOS") + string(filepath.Separator)
	i := strings.LastIndex(clean, marker)
	if i < 0 || !strings.HasSuffix(clean[:i], ".app") {
		return "", ErrNotBundled
	}
	return clean[:i], nil
}

// InBundle reports whether exe runs from inside an application bundle.
func InBundle(exe string) bool {
	_, err := Root(exe)
	return err == nil
}

// Launcher opens an installed bundle.
type Launcher func(app string) error

// Ensure installs and launches the bundle when exe is not already bundled.
// It reports whether a relaunch happened; the caller should then exit.
func (in *Installer) Ensure(exe string, launch Launcher) (bool, error) {
	if InBundle(exe) {
		return false, nil
	}
	app, err := in.Install(exe)
	if err != nil {
		return false, err
	}
	if launch == nil {
		launch = Open
	}
	if err := launch(app); err != nil {
		return false, fmt.Errorf("launch %s: %w", app, err)
	}
	return true, nil
}
