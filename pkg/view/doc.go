// Package view turns a session into the declarative model the chat widget
// renders, and sensor visualizations into chart definitions.
//
// The widget never mutates its DOM incrementally from business events: every
// update re-renders from the View produced here.
package view
