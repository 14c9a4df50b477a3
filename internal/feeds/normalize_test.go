package feeds

import "testing"

func TestNormalizeLinkKnownHost(t *testing.T) {
	in := "http://www.knowyourteeth.com/infobites/abc/article.asp?abc=123&iid=45&utm_source=rss&session=zzz"
	want := "https://knowyourteeth.com/infobites/abc/article.asp?abc=123&iid=45"

	got := NormalizeLink(in)
	if got != want {
		t.Errorf("NormalizeLink = %q, want %q", got, want)
	}
}

func TestNormalizeLinkParamOrder(t *testing.T) {
	// Parameters come back in allow-list order regardless of input order.
	in := "https://knowyourteeth.com/page?aid=3&abc=1&iid=2"
	want := "https://knowyourteeth.com/page?abc=1&iid=2&aid=3"

	if got := NormalizeLink(in); got != want {
		t.Errorf("NormalizeLink = %q, want %q", got, want)
	}
}

func TestNormalizeLinkDropsFragment(t *testing.T) {
	got := NormalizeLink("http://knowyourteeth.com/a/b?abc=1#section-2")
	if got != "https://knowyourteeth.com/a/b?abc=1" {
		t.Errorf("fragment not dropped: %q", got)
	}
}

func TestNormalizeLinkOtherHostUnchanged(t *testing.T) {
	links := []string{
		"https://askthedentist.com/feed-item?utm_source=rss",
		"http://example.com/path?a=1&b=2#frag",
		"not a url at all",
		"",
	}
	for _, link := range links {
		if got := NormalizeLink(link); got != link {
			t.Errorf("NormalizeLink(%q) = %q, want unchanged", link, got)
		}
	}
}

func TestNormalizeLinkIdempotent(t *testing.T) {
	links := []string{
		"http://www.knowyourteeth.com/x?abc=1&iid=2&aid=3&junk=4",
		"https://knowyourteeth.com/y",
		"https://dentalhealth.org/z?feed=1",
	}
	for _, link := range links {
		once := NormalizeLink(link)
		twice := NormalizeLink(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", link, once, twice)
		}
	}
}
