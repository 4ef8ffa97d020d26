// Package app wires the full pricing server from configuration: the cache
// store, the upstream CRUX client, the category manager, the tool registry
// and the MCP front end.
//
// # Usage
//
//	a, err := app.New(app.Config{
//	    Settings: cfg,
//	    Log:      log,
//	    Version:  "1.2.3",
//	})
//	if err != nil {
//	    return err
//	}
//	return a.Serve(ctx, os.Stdin, os.Stdout)
//
// [App.Serve] blocks until the client closes its end of the pipe or ctx is
// cancelled, runs the expiry reaper for the duration, and logs a final
// cache stats snapshot on the way out.
//
// Tests swap the upstream with Config.Source and drive Serve over in-memory
// readers and writers; see the integration package.
package app
