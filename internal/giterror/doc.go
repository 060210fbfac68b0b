// Package giterror provides error inspection capabilities for GitHub API errors.
// It classifies the string-shaped errors returned by the GraphQL client so the
// fetch loop can tell an unresolvable repository (stop paginating) apart from
// a transient failure (retry), and so every logged failure carries a category.
package giterror
