// Package healthcheck periodically probes endpoints and updates their
// health.
//
// A probe is a GET of the health path routed by status series and content
// type: any 2xx is healthy unless a JSON body reports a status other than
// UP, problem and vnd.error bodies become the recorded failure, and other
// answers are failures carrying their status code.
package healthcheck
