package graphql

const packageFields = `
      __typename
      id
      title
      description
      price
      duration
      destination
      category
      availability
      createdAt`

const bookingFields = `
      __typename
      id
      userId
      packageId {` + packageFields + `
      }
      date
      status
      createdAt`

const wishlistFields = `
      __typename
      id
      userId
      packageId {` + packageFields + `
      }
      createdAt`

const profileFields = `
      __typename
      id
      username
      email
      firstName
      lastName
      phoneNumber
      createdAt`

const authFields = `
      __typename
      id
      email
      token
      username`

var (
	Login = Define("Login", "login", AuthNone, `mutation Login($username: String!, $password: String!) {
    login(username: $username, password: $password) {`+authFields+`
    }
  }`)

	Register = Define("Register", "register", AuthNone, `mutation Register($registerInput: RegisterInput!) {
    register(registerInput: $registerInput) {`+authFields+`
    }
  }`)

	GetPackages = Define("GetPackages", "getPackages", AuthNone, `query GetPackages($search: String) {
    getPackages(search: $search) {`+packageFields+`
    }
  }`)

	GetAllPackages = Define("GetAllPackages", "getAllPackages", AuthNone, `query GetAllPackages {
    getAllPackages {`+packageFields+`
    }
  }`)

	GetPackageByID = Define("GetPackageById", "getPackageById", AuthNone, `query GetPackageById($id: ID!, $currency: String) {
    getPackageById(id: $id, currency: $currency) {`+packageFields+`
    }
  }`)

	GetUserProfile = Define("GetUserProfile", "getUserProfile", AuthUser, `query GetUserProfile($userId: ID!) {
    getUserProfile(userId: $userId) {`+profileFields+`
    }
  }`)

	GetBookings = Define("GetBookings", "getBookings", AuthUser, `query GetBookings($userId: ID!) {
    getBookings(userId: $userId) {`+bookingFields+`
      username
    }
  }`)

	GetAllBookings = Define("GetAllBookings", "getAllBookings", AuthAdmin, `query GetAllBookings {
    getAllBookings {`+bookingFields+`
      username
    }
  }`)

	GetAllUsers = Define("GetAllUsers", "getAllUsers", AuthAdmin, `query GetAllUsers {
    getAllUsers {`+profileFields+`
    }
  }`)

	GetUserWishlist = Define("GetUserWishlist", "getUserWishlist", AuthUser, `query GetUserWishlist($userId: ID!) {
    getUserWishlist(userId: $userId) {`+wishlistFields+`
    }
  }`)

	GetAdminAnalytics = Define("GetAdminAnalytics", "getAdminAnalytics", AuthAdmin, `query GetAdminAnalytics {
    getAdminAnalytics {
      totalRevenue
      totalBookings
      confirmedBookingsCount
      cancelledBookingsCount
      mostPopularPackages {
        __typename
        id
        title
        price
        destination
      }
    }
  }`)

	CreateBooking = Define("CreateBooking", "createBooking", AuthUser, `mutation CreateBooking($packageId: ID!, $userId: ID!, $date: String!) {
    createBooking(packageId: $packageId, userId: $userId, date: $date) {`+bookingFields+`
    }
  }`)

	CancelBooking = Define("CancelBooking", "cancelBooking", AuthUser, `mutation CancelBooking($bookingId: ID!, $userId: ID!) {
    cancelBooking(bookingId: $bookingId, userId: $userId) {`+bookingFields+`
    }
  }`)

	AddTravelPackage = Define("AddTravelPackage", "addTravelPackage", AuthAdmin, `mutation AddTravelPackage(
    $title: String!
    $description: String!
    $price: Float!
    $duration: String!
    $destination: String!
    $category: String!
    $availability: Int!
  ) {
    addTravelPackage(
      title: $title
      description: $description
      price: $price
      duration: $duration
      destination: $destination
      category: $category
      availability: $availability
    ) {`+packageFields+`
    }
  }`)

	EditTravelPackage = Define("EditTravelPackage", "editTravelPackage", AuthAdmin, `mutation EditTravelPackage(
    $packageId: ID!
    $title: String!
    $description: String!
    $price: Float!
    $duration: String!
    $destination: String!
    $category: String!
    $availability: Int!
  ) {
    editTravelPackage(
      packageId: $packageId
      title: $title
      description: $description
      price: $price
      duration: $duration
      destination: $destination
      category: $category
      availability: $availability
    ) {`+packageFields+`
    }
  }`)

	DeleteTravelPackage = Define("DeleteTravelPackage", "deleteTravelPackage", AuthAdmin, `mutation DeleteTravelPackage($packageId: ID!) {
    deleteTravelPackage(packageId: $packageId) {
      __typename
      id
    }
  }`)

	RemoveUser = Define("RemoveUser", "removeUser", AuthAdmin, `mutation RemoveUser($userId: ID!) {
    removeUser(userId: $userId) {
      id
      message
    }
  }`)

	UpdateUserProfile = Define("UpdateUserProfile", "updateUserProfile", AuthUser, `mutation UpdateUserProfile($userId: ID!, $updateInput: UpdateUserInput!) {
    updateUserProfile(userId: $userId, updateInput: $updateInput) {`+profileFields+`
      token
    }
  }`)

	AddToWishlist = Define("AddToWishlist", "addToWishlist", AuthUser, `mutation AddToWishlist($userId: ID!, $packageId: ID!) {
    addToWishlist(userId: $userId, packageId: $packageId) {`+wishlistFields+`
    }
  }`)

	RemoveFromWishlist = Define("RemoveFromWishlist", "removeFromWishlist", AuthUser, `mutation RemoveFromWishlist($userId: ID!, $packageId: ID!) {
    removeFromWishlist(userId: $userId, packageId: $packageId) {
      __typename
      id
      userId
      packageId {
        __typename
        id
        title
      }
    }
  }`)

	BookingCreated = Define("OnBookingCreated", "bookingCreated", AuthNone, `subscription OnBookingCreated {
    bookingCreated {
      id
      packageId
      userId
      date
      status
      createdAt
    }
  }`)

	BookingCancelled = Define("OnBookingCancelled", "bookingCancelled", AuthNone, `subscription OnBookingCancelled {
    bookingCancelled {
      id
      packageId
      userId
      date
      status
      createdAt
    }
  }`)
)
