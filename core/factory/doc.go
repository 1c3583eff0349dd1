// Package factory is a small generic registry used to build pluggable
// modules (metrics sinks, audit log stores) from configuration. A module is
// selected by its type name and receives its raw settings, which it decodes
// into a typed struct with Decode.
//
//	reg := factory.NewRegistry[planlog.LogStore]()
//	_ = reg.Register("sqlite", func(conf map[string]any) (planlog.LogStore, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return planlog.NewSQLiteStore(c.Path)
//	})
package factory
