package bancheck

// desktopUA is the fixed desktop user agent sent with every probe
// request. Profile pages render their ban markers for this class of
// browser.
const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36"

// acceptLanguage keeps responses in English so marker text stays stable.
const acceptLanguage = "en-US,en;q=0.9"
