// Package tracking implements the one-turn longitudinal map:
//
//	dE'  = dE + charge*(V(phi) - dE_s)
//	phi' = phi + k*dE'
//
// The kick uses the pre-turn phase and the drift uses the post-kick energy,
// which keeps the map symplectic.
package tracking
