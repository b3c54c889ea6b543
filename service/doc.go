// Package service implements the substrate shared by every GNUnet service
// client.
//
// Ownership boundary:
// - connecting to a daemon's unix socket and splitting it into read/write halves
// - the background dispatch loop that decodes frames and routes them to a handler
// - the correlation registry for protocols with many in-flight requests
//
// Individual service protocols (gns, identity, peerinfo, transport) layer
// their message vocabularies on top of this package.
package service
