/*
Package chaintest provides mocks and helpers for testing code that
implements or consumes the swapchain interfaces.
*/
package chaintest
