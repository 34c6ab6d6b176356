// Package cookie manages the two sides of the session cookies.
//
// On the server, Manager writes and expires cookies with consistent
// attributes:
//
//	m := cookie.New(cookie.WithSecure(true))
//	m.Set(w, "JWT", token, 7*24*3600)             // HttpOnly
//	m.SetReadable(w, "username", name, 7*24*3600) // visible to scripts
//	m.Expire(w, "JWT", "username")
//
// On the client, Jar is an http.CookieJar that remembers cookies for one
// origin in a kv.Store so a session survives process restarts:
//
//	jar, err := cookie.NewJar(ctx, "https://shop.example.com", store)
//	client := &http.Client{Jar: jar}
//	token, ok := jar.Value("JWT")
//
// Jar.Expire drops cookies locally by giving them an already-past expiry,
// the same way a browser forgets them.
package cookie
