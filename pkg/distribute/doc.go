// Package distribute copies a template document into a destination folder on
// the Feishu/Lark platform.
//
// A Distributor resolves both URLs to resource tokens, picks the platform
// deployment from the template URL, obtains a tenant access token, and asks the
// platform for a server-side copy. The outcome is always a Result; failures
// carry a lark.Kind that the HTTP layer maps to a status code.
//
// Example:
//
//	cache, _ := lark.NewTokenCache(lark.TokenCacheConfig{Credentials: creds, Issuer: client})
//	d, _ := distribute.New(distribute.Config{Tokens: cache, Copier: client})
//	res := d.Distribute(ctx, distribute.Request{
//	    RecordID:       "r1",
//	    TemplateDocURL: "https://example.feishu.cn/docx/abc123",
//	})
package distribute
