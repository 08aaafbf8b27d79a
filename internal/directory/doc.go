// Package directory builds the live view of a Ring account.
//
// Builder.Build fetches the location list and the device snapshot in
// parallel, then:
//
//  1. fails with ErrTwoFactorRequired if the account needs a refresh token,
//  2. creates one device.Camera per camera record (a doorbell listed as
//     both owned and shared is created once),
//  3. marks locations that have a base station or beams bridge,
//  4. keeps only the locations in the allow-list, when one is configured,
//  5. starts a status and an event coordinator over every created camera.
//
// The result is a Directory. Rebuilding stops the previous directory's
// coordinators once the new one is ready; observers registered with
// OnBuild are told about each new directory so they can attach listeners
// to its cameras.
package directory
