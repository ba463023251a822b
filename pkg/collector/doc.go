// Package collector asks a client for device attributes and copies its answer
// into session state.
//
// A login attempt passes through the collector twice. The first time there is
// no submission, so Process returns a request naming the enabled attributes
// and the attempt waits for the client. The second time the client's JSON
// submission is copied into session state under the device.* keys.
//
//	c, err := collector.New(collector.Config{Profile: true, Location: true})
//	out, err := c.Process(state, "")
//	// out.Request == "device://simple-idm?attributes=profile&attributes=location"
//
//	out, err = c.Process(state, `{"identifier":"phone","profile":{}}`)
//	// out.Submitted == true, out.State holds device.identifier, device.profile
//	// and device.location (the empty string, since it was not supplied)
package collector
