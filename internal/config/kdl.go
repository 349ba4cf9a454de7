package config

import (
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	refserrors "github.com/standardbeagle/refscan/internal/errors"
)

// parseKDL decodes a `.refscan.kdl` document over the defaults:
//
//	project {
//	    root "."
//	    name "MyGame"
//	}
//	scan {
//	    workers 8
//	    max_file_size "16MB"
//	    meta "with-asset"
//	    guid_only false
//	}
//	filter {
//	    include "Assets/**"
//	    exclude "Assets/Generated/**"
//	    extensions ".prefab" ".unity" ".mat"
//	    exclude_packages true
//	}
//	history {
//	    limit 30
//	    autosave true
//	}
//	watch {
//	    debounce_ms 500
//	}
func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, refserrors.NewConfigError("kdl", "", err)
	}

	excludeSeen := false
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "scan":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scan.Workers = v
					}
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scan.MaxFileSize = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Scan.MaxFileSize = sz
						}
					}
				case "meta":
					if s, ok := firstStringArg(cn); ok {
						cfg.Scan.Meta = s
					}
				case "guid_only":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Scan.GUIDOnly = b
					}
				}
			}
		case "filter":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "include":
					cfg.Filter.Include = append(cfg.Filter.Include, collectStringArgs(cn)...)
				case "exclude":
					// An explicit exclude list replaces the defaults.
					if !excludeSeen {
						cfg.Filter.Exclude = nil
						excludeSeen = true
					}
					cfg.Filter.Exclude = append(cfg.Filter.Exclude, collectStringArgs(cn)...)
				case "extensions":
					cfg.Filter.Extensions = append(cfg.Filter.Extensions, collectStringArgs(cn)...)
				case "exclude_packages":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Filter.ExcludePackages = b
					}
				}
			}
		case "history":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.History.Limit = v
					}
				case "autosave":
					if b, ok := firstBoolArg(cn); ok {
						cfg.History.Autosave = b
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				if nodeName(cn) == "debounce_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		}
	}

	return cfg, nil
}

// Helper functions leveraging the kdl-go document model.

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block form: each child node's name is the string value.
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "16MB", "500KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
