// Package render defines the renderer contract for engine trees and the
// helpers shared by concrete renderers: localisation, hidden inputs and
// server error mapping.
package render
