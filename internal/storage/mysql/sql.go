package mysql

// ---- users & sitters ----

const insertUserSQL = `
INSERT INTO users (id, email, password_hash, name, role, phone, country, bio, avatar_url, verified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertSitterSQL = `
INSERT INTO sitters (id, user_id, rating, total_reviews, experience_years, credentials, languages, is_available)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const selectUserCols = `
SELECT id, email, password_hash, name, role, phone, country, bio, avatar_url, verified, created_at
FROM users
`

const listSittersSQL = `
SELECT s.id, u.name, u.email, u.country, u.bio, u.avatar_url,
       s.rating, s.total_reviews, s.experience_years, s.is_available
FROM sitters s
JOIN users u ON s.user_id = u.id
WHERE s.is_available = 1
ORDER BY s.rating DESC, s.id
LIMIT ? OFFSET ?
`

const countSittersSQL = `SELECT COUNT(*) FROM sitters WHERE is_available = 1`

const sitterStatsSQL = `
SELECT COUNT(DISTINCT a.id),
       AVG(r.rating),
       COUNT(DISTINCT r.id)
FROM sitters s
LEFT JOIN arrangements a ON a.sitter_id = s.id
LEFT JOIN reviews r ON r.reviewee_id = s.user_id AND r.role = 'sitter'
WHERE s.user_id = ?
`

// ---- properties ----

const insertPropertySQL = `
INSERT INTO properties (
  id, homeowner_id, title, description, type, bedrooms, bathrooms,
  location, city, country, price_per_month, security_deposit,
  square_feet, min_stay_days, max_stay_days, rules, website_url,
  virtual_tour_url, latitude, longitude, availability_start, availability_end, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const propertyDetailSQL = `
SELECT p.id, p.homeowner_id, p.title, p.description, p.type, p.bedrooms, p.bathrooms,
       p.location, p.city, p.country, p.price_per_month, p.security_deposit,
       p.square_feet, p.min_stay_days, p.max_stay_days, p.rules, p.website_url,
       p.virtual_tour_url, p.latitude, p.longitude, p.availability_start, p.availability_end,
       p.status, p.created_at, p.updated_at,
       u.name, u.email, u.bio, u.avatar_url, u.phone
FROM properties p
JOIN users u ON p.homeowner_id = u.id
WHERE p.id = ?
`

// propertySummarySelect is shared by the listing, saved and location
// queries; each appends its own WHERE/ORDER clauses.
const propertySummarySelect = `
SELECT p.id, p.homeowner_id, p.title, p.description, p.type, p.bedrooms, p.bathrooms,
       p.location, p.city, p.country, p.price_per_month, p.security_deposit,
       p.min_stay_days, p.max_stay_days, p.status, p.created_at,
       u.name, u.country,
       (SELECT pi.image_url FROM property_images pi
          WHERE pi.property_id = p.id AND pi.is_primary = 1 LIMIT 1),
       (SELECT COUNT(*) FROM property_images pi WHERE pi.property_id = p.id),
       (SELECT COUNT(*) FROM reviews r WHERE r.property_id = p.id),
       (SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.property_id = p.id)
FROM properties p
JOIN users u ON p.homeowner_id = u.id
`

const propertyAmenitiesSQL = `SELECT amenity FROM property_amenities WHERE property_id = ? ORDER BY amenity`

const propertyImagesSQL = `
SELECT id, property_id, image_url, display_order, is_primary, uploaded_at
FROM property_images
WHERE property_id = ?
ORDER BY display_order, uploaded_at
`

const insertImageSQL = `
INSERT INTO property_images (id, property_id, image_url, display_order, is_primary)
VALUES (?, ?, ?, ?, ?)
`

const propertyStatsSQL = `
SELECT status, COUNT(*), AVG(DATEDIFF(end_date, start_date))
FROM arrangements
WHERE property_id = ?
GROUP BY status
`

// Haversine distance in kilometres; 6371 is the Earth radius in km. The
// alias lets HAVING filter on the computed column.
const locationSearchSQL = `
SELECT p.id, p.homeowner_id, p.title, p.description, p.type, p.bedrooms, p.bathrooms,
       p.location, p.city, p.country, p.price_per_month, p.security_deposit,
       p.min_stay_days, p.max_stay_days, p.status, p.created_at,
       u.name, u.country,
       (SELECT pi.image_url FROM property_images pi
          WHERE pi.property_id = p.id AND pi.is_primary = 1 LIMIT 1),
       (SELECT COUNT(*) FROM property_images pi WHERE pi.property_id = p.id),
       (SELECT COUNT(*) FROM reviews r WHERE r.property_id = p.id),
       (SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.property_id = p.id),
       (
         6371 * ACOS(
           COS(RADIANS(?)) * COS(RADIANS(p.latitude)) *
           COS(RADIANS(p.longitude) - RADIANS(?)) +
           SIN(RADIANS(?)) * SIN(RADIANS(p.latitude))
         )
       ) AS distance
FROM properties p
JOIN users u ON p.homeowner_id = u.id
WHERE p.status = 'available'
  AND p.latitude IS NOT NULL
  AND p.longitude IS NOT NULL
HAVING distance <= ?
ORDER BY distance
LIMIT 50
`

// ---- saved properties ----

const saveSQL = `INSERT INTO saved_properties (user_id, property_id) VALUES (?, ?)`

const unsaveSQL = `DELETE FROM saved_properties WHERE user_id = ? AND property_id = ?`

const listSavedSQL = propertySummarySelect + `
JOIN saved_properties sp ON sp.property_id = p.id
WHERE sp.user_id = ?
ORDER BY sp.saved_at DESC
`

// ---- arrangements ----

// Lock order inside the booking transaction: property row first, then the
// overlap probe; every booking for the same property serializes here.
const lockPropertyForBookingSQL = `
SELECT status, min_stay_days, max_stay_days, price_per_month, security_deposit, homeowner_id
FROM properties
WHERE id = ?
FOR UPDATE
`

// Boundary touches count as conflicts: a single turnover day between stays
// is required, so the comparison is inclusive on both ends.
const overlapSQL = `
SELECT id, start_date, end_date, status
FROM arrangements
WHERE property_id = ?
  AND status IN ('pending', 'confirmed', 'active')
  AND start_date <= ?
  AND end_date >= ?
`

const insertArrangementSQL = `
INSERT INTO arrangements (
  id, property_id, sitter_id, start_date, end_date, status,
  total_amount, security_deposit, house_rules, special_instructions
) VALUES (?, ?, ?, ?, ?, 'pending', ?, ?, ?, ?)
`

const insertMessageSQL = `
INSERT INTO messages (id, arrangement_id, sender_id, receiver_id, message)
VALUES (?, ?, ?, ?, ?)
`

const getArrangementSQL = `
SELECT id, property_id, sitter_id, start_date, end_date, status,
       total_amount, security_deposit, house_rules, special_instructions,
       created_at, updated_at
FROM arrangements
WHERE id = ?
`

const arrangementOwnerSQL = `
SELECT p.homeowner_id
FROM arrangements a
JOIN properties p ON a.property_id = p.id
WHERE a.id = ?
`

const listForHomeownerSQL = `
SELECT a.id, a.property_id, a.sitter_id, a.start_date, a.end_date, a.status,
       a.total_amount, a.security_deposit, a.house_rules, a.special_instructions,
       a.created_at, a.updated_at,
       p.title, p.location, p.city, p.country, p.price_per_month,
       u.id, u.name, u.email, u.avatar_url,
       (SELECT COUNT(*) FROM messages m WHERE m.arrangement_id = a.id)
FROM arrangements a
JOIN properties p ON a.property_id = p.id
JOIN sitters s ON a.sitter_id = s.id
JOIN users u ON s.user_id = u.id
WHERE p.homeowner_id = ?
ORDER BY a.created_at DESC
`

const listForSitterSQL = `
SELECT a.id, a.property_id, a.sitter_id, a.start_date, a.end_date, a.status,
       a.total_amount, a.security_deposit, a.house_rules, a.special_instructions,
       a.created_at, a.updated_at,
       p.title, p.location, p.city, p.country, p.price_per_month,
       u.id, u.name, u.email, u.avatar_url,
       (SELECT COUNT(*) FROM messages m WHERE m.arrangement_id = a.id)
FROM arrangements a
JOIN properties p ON a.property_id = p.id
JOIN sitters s ON a.sitter_id = s.id
JOIN users u ON p.homeowner_id = u.id
WHERE s.user_id = ?
ORDER BY a.created_at DESC
`

// Compare-and-swap on status; zero rows affected means the arrangement
// moved under us (or never existed).
const transitionSQL = `
UPDATE arrangements
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND status = ?
`

const lockPropertyRowSQL = `SELECT id FROM properties WHERE id = ? FOR UPDATE`

const setPropertyStatusSQL = `
UPDATE properties SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

const otherOccupantsSQL = `
SELECT COUNT(*)
FROM arrangements
WHERE property_id = ?
  AND id <> ?
  AND status IN ('confirmed', 'active')
`

const blockingArrangementsSQL = `
SELECT COUNT(*)
FROM arrangements
WHERE property_id = ?
  AND status IN ('pending', 'confirmed', 'active')
`

// ---- messages ----

const listMessagesSQL = `
SELECT m.id, m.arrangement_id, m.sender_id, m.receiver_id, m.message, m.created_at,
       u.name, u.avatar_url
FROM messages m
JOIN users u ON m.sender_id = u.id
WHERE m.arrangement_id = ?
ORDER BY m.created_at ASC, m.id ASC
`

const participantsSQL = `
SELECT p.homeowner_id, s.user_id
FROM arrangements a
JOIN properties p ON a.property_id = p.id
JOIN sitters s ON a.sitter_id = s.id
WHERE a.id = ?
`
