// Package language normalizes the language names users type (ISO codes,
// English or native words, BCP 47 locales) to the two-letter codes the
// speech voice catalogue is keyed by.
package language
